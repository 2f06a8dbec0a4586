// Package qoicore implements the streaming QOI codec core: a pixel/cache
// model shared by a decoder and an encoder state machine, each driven one
// byte at a time. Neither machine buffers a whole image; all state fits in
// the Decoder/Encoder struct itself.
package qoicore

// MagicBytes is the 4-byte QOI file magic.
const MagicBytes = "qoif"

// HeaderSize is the number of bytes in a QOI header.
const HeaderSize = 14

// EndMarker is the 8-byte footer that terminates a QOI stream.
var EndMarker = [8]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}

// Opcode tag bytes and masks, per the QOI wire format.
const (
	tagRGB  byte = 0xfe
	tagRGBA byte = 0xff

	tagMask2 byte = 0xc0 // top 2 bits select INDEX/DIFF/LUMA/RUN

	opIndex byte = 0x00
	opDiff  byte = 0x40
	opLuma  byte = 0x80
	opRun   byte = 0xc0
)

// Channels enumerates the only two channel counts QOI supports.
const (
	ChannelsFromHeader uint8 = 0 // decoder-only: adopt whatever the header declares
	ChannelsRGB        uint8 = 3
	ChannelsRGBA       uint8 = 4
)

// Colorspace values a QOI header may declare.
const (
	ColorspaceSRGB   uint8 = 0
	ColorspaceLinear uint8 = 1
)

// Pixel is a single RGBA pixel value. The zero value is transparent black,
// NOT the QOI default pixel (0,0,0,255) — callers that need the default
// must construct it explicitly.
type Pixel struct {
	R, G, B, A uint8
}

// defaultPixel is the pixel both the encoder and decoder start a stream
// with, per spec: (0, 0, 0, 255).
var defaultPixel = Pixel{R: 0, G: 0, B: 0, A: 255}

// Equal reports whether p and other have identical channels.
func (p Pixel) Equal(other Pixel) bool {
	return p == other
}

// Hash computes the QOI cache-slot index for p, over all four channels
// regardless of the image's declared channel count.
func (p Pixel) Hash() uint8 {
	return (p.R*3 + p.G*5 + p.B*7 + p.A*11) % 64
}

// bytes writes p's first n channels (n is 3 or 4) into out in RGBA order.
func (p Pixel) bytes(out []byte, n int) {
	out[0] = p.R
	out[1] = p.G
	out[2] = p.B
	if n > 3 {
		out[3] = p.A
	}
}

// Descriptor is the decoded/encoded image's header fields.
type Descriptor struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

// PixelCount returns Width*Height as a 64-bit count, avoiding uint32
// overflow for large images.
func (d Descriptor) PixelCount() uint64 {
	return uint64(d.Width) * uint64(d.Height)
}

func isValidChannels(b uint8) bool {
	return b == ChannelsRGB || b == ChannelsRGBA
}

func isValidColorspace(b uint8) bool {
	return b == ColorspaceSRGB || b == ColorspaceLinear
}

// classifyOp returns the opcode phase the first byte of an op dispatches
// to. 0xfe/0xff are the two fixed-tag ops; everything else is classified
// by its top 2 bits.
func classifyOp(b byte) phase {
	switch {
	case b == tagRGBA:
		return phaseOpRGBA
	case b == tagRGB:
		return phaseOpRGB
	default:
		switch b & tagMask2 {
		case opIndex:
			return phaseOpIndex
		case opDiff:
			return phaseOpDiff
		case opLuma:
			return phaseOpLuma
		default: // opRun
			return phaseOpRun
		}
	}
}
