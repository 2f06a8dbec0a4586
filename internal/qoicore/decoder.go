package qoicore

// phase is the decoder's (and, reused below, the classifyOp result's)
// position in the byte-at-a-time state machine. The header/footer/done
// phases and the six op phases together form the "Header / OpStart /
// OpBody(kind) / Footer / Done" machine of spec.md §4.2: OpStart is
// phaseOpNone (awaiting the next opcode byte) and OpBody(kind) is one of
// the phaseOp* values below (mid-opcode, still consuming payload bytes).
type phase int

const (
	phaseHeader phase = iota
	phaseFooter
	phaseDone

	phaseOpNone // OpStart: no opcode byte consumed yet for the current op
	phaseOpRGB
	phaseOpRGBA
	phaseOpIndex
	phaseOpDiff
	phaseOpLuma
	phaseOpRun
)

// Decoder is a push-driven QOI decoder state machine. It holds no
// pixel-buffer large enough for a whole image; DecodeByte is fed one
// encoded byte at a time and appends 0..N raw pixel bytes to out.
type Decoder struct {
	desc Descriptor

	channelsOverride uint8 // 0 if decoding should adopt the header's channels

	phase      phase
	opData     byte
	opPosition int

	pixelsOut  uint64
	pixelCount uint64

	current Pixel
	last    Pixel
	cache   [64]Pixel
}

// NewDecoder constructs a Decoder. channelsOverride is 0 to take the
// channel count from the header, or 3/4 to force the decoder to emit that
// many channels regardless of what the header declares (spec.md §9,
// "Channel-override in decoder init").
func NewDecoder(channelsOverride uint8) *Decoder {
	d := &Decoder{channelsOverride: channelsOverride}
	if channelsOverride != 0 {
		d.desc.Channels = channelsOverride
	}
	d.current = defaultPixel
	d.last = defaultPixel
	return d
}

// Descriptor returns the image descriptor once the header has been fully
// consumed (before that, Width/Height/Colorspace are zero and Channels may
// only reflect a caller-supplied override).
func (d *Decoder) Descriptor() Descriptor {
	return d.desc
}

// Done reports whether the decoder has consumed a full stream (header,
// every pixel, and the footer).
func (d *Decoder) Done() bool {
	return d.phase == phaseDone
}

// DecodeByte feeds one encoded byte into the decoder and appends any
// resulting raw pixel bytes to out, returning how many bytes were written.
// Header and footer bytes write nothing; a pixel- or run-emitting opcode
// needs up to Channels*62 bytes of spare capacity (the §6 worst case: a
// 62-pixel run), checked per emission in emitPixel/emitPixelRun. Once
// DecodeByte returns a non-nil error the Decoder must be discarded; it is
// not safe to keep driving it.
func (d *Decoder) DecodeByte(b byte, out []byte) (int, error) {
	switch {
	case d.phase == phaseHeader:
		return 0, d.decodeHeaderByte(b)

	case d.phase == phaseFooter:
		return 0, d.decodeFooterByte(b)

	case d.phase == phaseDone:
		return 0, nil

	default: // one of the phaseOp* phases: mid- or between-opcode
		n, err := d.decodeOpByte(b, out)
		if err != nil {
			return 0, err
		}
		if d.pixelsOut >= d.pixelCount {
			d.phase = phaseFooter
			d.opPosition = 0
		}
		return n, nil
	}
}

func (d *Decoder) decodeHeaderByte(b byte) error {
	switch d.opPosition {
	case 0, 1, 2, 3:
		if b != MagicBytes[d.opPosition] {
			return formatErrorf("bad magic byte %d: got 0x%02x", d.opPosition, b)
		}
	case 4:
		d.desc.Width |= uint32(b) << 24
	case 5:
		d.desc.Width |= uint32(b) << 16
	case 6:
		d.desc.Width |= uint32(b) << 8
	case 7:
		d.desc.Width |= uint32(b)
	case 8:
		d.desc.Height |= uint32(b) << 24
	case 9:
		d.desc.Height |= uint32(b) << 16
	case 10:
		d.desc.Height |= uint32(b) << 8
	case 11:
		d.desc.Height |= uint32(b)
		d.pixelCount = d.desc.PixelCount()
	case 12:
		if !isValidChannels(b) {
			return formatErrorf("invalid channels byte 0x%02x", b)
		}
		if d.channelsOverride == 0 {
			d.desc.Channels = b
		}
		// else: an override is in effect; the header's declared value is
		// validated but not adopted — a known, opt-in format deviation.
	case 13:
		if !isValidColorspace(b) {
			return formatErrorf("invalid colorspace byte 0x%02x", b)
		}
		d.desc.Colorspace = b
	default:
		return formatErrorf("header overrun at position %d", d.opPosition)
	}

	d.opPosition++
	if d.opPosition == HeaderSize {
		d.phase = phaseOpNone
		d.opPosition = 0
	}
	return nil
}

func (d *Decoder) decodeFooterByte(b byte) error {
	if b != EndMarker[d.opPosition] {
		return formatErrorf("bad footer byte %d: got 0x%02x", d.opPosition, b)
	}
	d.opPosition++
	if d.opPosition == len(EndMarker) {
		d.phase = phaseDone
	}
	return nil
}

// decodeOpByte dispatches a byte belonging to the opcode stream (OpStart
// through OpBody). It returns how many raw pixel bytes were appended to
// out.
func (d *Decoder) decodeOpByte(b byte, out []byte) (int, error) {
	if d.phase == phaseOpNone {
		d.last = d.current
		d.current = defaultPixel
		d.phase = classifyOp(b)
		d.opData = b & 0x3f
		d.opPosition = 0
	}

	pixelsOut := 0

	switch d.phase {
	case phaseOpRGB:
		switch d.opPosition {
		case 0: // opcode byte itself, already classified above
		case 1:
			d.current.R = b
		case 2:
			d.current.G = b
		case 3:
			d.current.B = b
			d.current.A = d.last.A
			if err := d.emitPixel(out); err != nil {
				return 0, err
			}
			pixelsOut = 1
			d.phase = phaseOpNone
		default:
			return 0, formatErrorf("RGB op overrun at position %d", d.opPosition)
		}

	case phaseOpRGBA:
		switch d.opPosition {
		case 0:
		case 1:
			d.current.R = b
		case 2:
			d.current.G = b
		case 3:
			d.current.B = b
		case 4:
			d.current.A = b
			if err := d.emitPixel(out); err != nil {
				return 0, err
			}
			pixelsOut = 1
			d.phase = phaseOpNone
		default:
			return 0, formatErrorf("RGBA op overrun at position %d", d.opPosition)
		}

	case phaseOpIndex:
		d.current = d.cache[d.opData]
		if err := d.emitPixel(out); err != nil {
			return 0, err
		}
		pixelsOut = 1
		d.phase = phaseOpNone

	case phaseOpDiff:
		dr := int8((d.opData>>4)&0x03) - 2
		dg := int8((d.opData>>2)&0x03) - 2
		db := int8((d.opData>>0)&0x03) - 2
		d.current.R = d.last.R + uint8(dr)
		d.current.G = d.last.G + uint8(dg)
		d.current.B = d.last.B + uint8(db)
		d.current.A = d.last.A
		if err := d.emitPixel(out); err != nil {
			return 0, err
		}
		pixelsOut = 1
		d.phase = phaseOpNone

	case phaseOpLuma:
		switch d.opPosition {
		case 0:
		case 1:
			dg := int8(d.opData) - 32
			dr := int8(b>>4) - 8
			db := int8(b&0x0f) - 8
			d.current.G = d.last.G + uint8(dg)
			d.current.R = d.last.R + uint8(dg+dr)
			d.current.B = d.last.B + uint8(dg+db)
			d.current.A = d.last.A
			if err := d.emitPixel(out); err != nil {
				return 0, err
			}
			pixelsOut = 1
			d.phase = phaseOpNone
		default:
			return 0, formatErrorf("LUMA op overrun at position %d", d.opPosition)
		}

	case phaseOpRun:
		d.current = d.last
		length := int(d.opData) + 1
		if err := d.emitPixelRun(out, length); err != nil {
			return 0, err
		}
		pixelsOut = length
		d.phase = phaseOpNone

	default:
		return 0, formatErrorf("invalid decoder phase %d", d.phase)
	}

	d.opPosition++
	d.pixelsOut += uint64(pixelsOut)
	return pixelsOut * int(d.desc.Channels), nil
}

// emitPixel writes d.current into out and re-confirms its cache slot.
func (d *Decoder) emitPixel(out []byte) error {
	n := int(d.desc.Channels)
	if err := needBytes(out, n); err != nil {
		return err
	}
	d.current.bytes(out, n)
	d.cache[d.current.Hash()] = d.current
	return nil
}

// emitPixelRun writes `count` copies of d.current (the run's pixel) into
// out and confirms its cache slot once.
func (d *Decoder) emitPixelRun(out []byte, count int) error {
	n := int(d.desc.Channels)
	if err := needBytes(out, n*count); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		d.current.bytes(out[i*n:], n)
	}
	d.cache[d.current.Hash()] = d.current
	return nil
}
