package qoicore

// encPhase is the encoder's position in the byte-at-a-time state machine
// of spec.md §4.3: Header, Encoding (pixel accumulation + opcode
// emission), Footer, Done.
type encPhase int

const (
	encHeader encPhase = iota
	encEncoding
	encFooter
	encDone
)

// Encoder is a push-driven QOI encoder state machine. EncodeByte is fed
// one raw pixel byte at a time and appends 0..N encoded bytes to out.
type Encoder struct {
	desc Descriptor

	phase         encPhase
	pixelPosition int
	runLength     int

	pixelsIn   uint64
	pixelCount uint64

	current Pixel
	last    Pixel
	cache   [64]Pixel
}

// NewEncoder constructs an Encoder for an image of the given dimensions,
// channel count (3 or 4) and colorspace (0 or 1) — spec.md §6's enc_init.
func NewEncoder(width, height uint32, channels, colorspace uint8) *Encoder {
	e := &Encoder{
		desc: Descriptor{
			Width:      width,
			Height:     height,
			Channels:   channels,
			Colorspace: colorspace,
		},
		pixelCount: uint64(width) * uint64(height),
	}
	e.current = defaultPixel
	e.last = defaultPixel
	return e
}

// Done reports whether the encoder has emitted a full stream (header,
// every pixel, and the footer).
func (e *Encoder) Done() bool {
	return e.phase == encDone
}

// EncodeByte feeds one raw input-pixel byte into the encoder and appends
// any resulting encoded bytes to out, returning how many bytes were
// written. out must have at least Channels*62+5 bytes of spare capacity
// (the §6 worst case: a header followed by a 5-byte RGBA, or a flushed
// 62-pixel run followed by a new opcode). Once EncodeByte returns a
// non-nil error the Encoder must be discarded.
func (e *Encoder) EncodeByte(b byte, out []byte) (int, error) {
	outputted := 0

	if e.phase == encHeader {
		n, err := e.emitHeader(out)
		if err != nil {
			return 0, err
		}
		outputted += n
		e.phase = encEncoding
	}

	if e.phase == encEncoding {
		if e.pixelsIn >= e.pixelCount {
			// A zero-pixel image (width or height 0): there is no pixel for
			// b to belong to, so skip straight to the footer instead of
			// feeding b into encodePixelByte as if it were real pixel data.
			e.phase = encFooter
		} else {
			n, err := e.encodePixelByte(b, out[outputted:])
			if err != nil {
				return 0, err
			}
			outputted += n
			if e.pixelsIn >= e.pixelCount {
				e.phase = encFooter
			}
		}
	}

	if e.phase == encFooter {
		n, err := e.emitFooter(out[outputted:])
		if err != nil {
			return 0, err
		}
		outputted += n
		e.phase = encDone
	}

	return outputted, nil
}

func (e *Encoder) emitHeader(out []byte) (int, error) {
	if err := needBytes(out, HeaderSize); err != nil {
		return 0, err
	}
	copy(out[0:4], MagicBytes)
	out[4] = byte(e.desc.Width >> 24)
	out[5] = byte(e.desc.Width >> 16)
	out[6] = byte(e.desc.Width >> 8)
	out[7] = byte(e.desc.Width)
	out[8] = byte(e.desc.Height >> 24)
	out[9] = byte(e.desc.Height >> 16)
	out[10] = byte(e.desc.Height >> 8)
	out[11] = byte(e.desc.Height)
	out[12] = e.desc.Channels
	out[13] = e.desc.Colorspace
	return HeaderSize, nil
}

func (e *Encoder) emitFooter(out []byte) (int, error) {
	if err := needBytes(out, len(EndMarker)); err != nil {
		return 0, err
	}
	copy(out, EndMarker[:])
	return len(EndMarker), nil
}

// encodePixelByte buffers one byte of the in-flight pixel and, once a full
// pixel has been accumulated, chooses and emits an opcode per the §4.4
// priority order.
func (e *Encoder) encodePixelByte(b byte, out []byte) (int, error) {
	setPixelChannel(&e.current, e.pixelPosition, b)
	e.pixelPosition++
	if e.pixelPosition < int(e.desc.Channels) {
		return 0, nil
	}
	e.pixelPosition = 0
	e.pixelsIn++

	outputted := 0

	// RUN: extend or flush.
	if e.current.Equal(e.last) {
		e.runLength++
		if e.runLength < 62 && e.pixelsIn < e.pixelCount {
			return 0, nil
		}
		n, err := e.flushRun(out)
		if err != nil {
			return 0, err
		}
		outputted += n
		e.finishPixel()
		return outputted, nil
	}

	if e.runLength > 0 {
		n, err := e.flushRun(out)
		if err != nil {
			return 0, err
		}
		outputted += n
	}

	// INDEX
	hash := e.current.Hash()
	if e.cache[hash].Equal(e.current) {
		if err := needBytes(out[outputted:], 1); err != nil {
			return 0, err
		}
		out[outputted] = opIndex | hash
		outputted++
		e.finishPixel()
		return outputted, nil
	}

	// RGBA
	if e.desc.Channels > ChannelsRGB && e.current.A != e.last.A {
		if err := needBytes(out[outputted:], 5); err != nil {
			return 0, err
		}
		out[outputted] = tagRGBA
		out[outputted+1] = e.current.R
		out[outputted+2] = e.current.G
		out[outputted+3] = e.current.B
		out[outputted+4] = e.current.A
		outputted += 5
		e.finishPixel()
		return outputted, nil
	}

	dr := int8(e.current.R - e.last.R)
	dg := int8(e.current.G - e.last.G)
	db := int8(e.current.B - e.last.B)

	// DIFF
	if dr >= -2 && dr <= 1 && dg >= -2 && dg <= 1 && db >= -2 && db <= 1 {
		if err := needBytes(out[outputted:], 1); err != nil {
			return 0, err
		}
		out[outputted] = opDiff | uint8(dr+2)<<4 | uint8(dg+2)<<2 | uint8(db+2)
		outputted++
		e.finishPixel()
		return outputted, nil
	}

	// LUMA
	drDg := int8(dr - dg)
	dbDg := int8(db - dg)
	if dg >= -32 && dg <= 31 && drDg >= -8 && drDg <= 7 && dbDg >= -8 && dbDg <= 7 {
		if err := needBytes(out[outputted:], 2); err != nil {
			return 0, err
		}
		out[outputted] = opLuma | uint8(dg+32)
		out[outputted+1] = uint8(drDg+8)<<4 | uint8(dbDg+8)
		outputted += 2
		e.finishPixel()
		return outputted, nil
	}

	// RGB
	if err := needBytes(out[outputted:], 4); err != nil {
		return 0, err
	}
	out[outputted] = tagRGB
	out[outputted+1] = e.current.R
	out[outputted+2] = e.current.G
	out[outputted+3] = e.current.B
	outputted += 4
	e.finishPixel()
	return outputted, nil
}

// flushRun emits the outstanding run as one byte: an INDEX to last's
// cache slot when the run is exactly one pixel long (smaller on the wire
// and bit-identical to the reference encoder, per spec.md §4.4/§9), or a
// RUN opcode otherwise.
func (e *Encoder) flushRun(out []byte) (int, error) {
	if err := needBytes(out, 1); err != nil {
		return 0, err
	}
	if e.runLength == 1 {
		out[0] = opIndex | e.last.Hash()
	} else {
		out[0] = opRun | uint8(e.runLength-1)
	}
	e.runLength = 0
	return 1, nil
}

func (e *Encoder) finishPixel() {
	hash := e.current.Hash()
	e.cache[hash] = e.current
	e.last = e.current
}

func setPixelChannel(p *Pixel, position int, b byte) {
	switch position {
	case 0:
		p.R = b
	case 1:
		p.G = b
	case 2:
		p.B = b
	case 3:
		p.A = b
	}
}
