// Package qoi implements the QOI (Quite OK Image) codec on top of a
// byte-granular streaming core (internal/qoicore). Decode/Encode are
// whole-buffer convenience wrappers for callers that already hold an
// entire image in memory; they drive the streaming state machine one
// byte at a time internally, the same way a caller feeding a live
// network or pipe connection would.
package qoi

import (
	"encoding/binary"
	"fmt"

	"github.com/streamqoi/qoi/internal/qoicore"
)

// scratchSize comfortably covers the largest single emission either
// direction of the codec can produce for one input byte (a 62-pixel run
// at 4 channels, or a header).
const scratchSize = 4096

// Header mirrors a QOI stream's 14-byte header.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

// ReadHeader parses the first 14 bytes of a QOI stream.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < qoicore.HeaderSize {
		return Header{}, fmt.Errorf("qoi: header is %d bytes long, got %d bytes", qoicore.HeaderSize, len(data))
	}
	if string(data[0:4]) != qoicore.MagicBytes {
		return Header{}, fmt.Errorf("qoi: file does not start with QOI magic bytes, found %q", data[0:4])
	}
	return Header{
		Width:      binary.BigEndian.Uint32(data[4:8]),
		Height:     binary.BigEndian.Uint32(data[8:12]),
		Channels:   data[12],
		Colorspace: data[13],
	}, nil
}

// Decode decodes a complete QOI-encoded buffer into raw interleaved pixel
// bytes (Channels bytes per pixel, row-major). channelsOverride is
// qoicore.ChannelsFromHeader to honor the header's declared channel count,
// or qoicore.ChannelsRGB/ChannelsRGBA to force the decoder's output width.
func Decode(data []byte, channelsOverride uint8) ([]byte, Header, error) {
	d := qoicore.NewDecoder(channelsOverride)
	raw := make([]byte, 0, len(data))
	buf := make([]byte, scratchSize)
	for _, b := range data {
		n, err := d.DecodeByte(b, buf)
		if err != nil {
			return nil, Header{}, err
		}
		raw = append(raw, buf[:n]...)
		if d.Done() {
			break
		}
	}
	if !d.Done() {
		return nil, Header{}, fmt.Errorf("qoi: truncated stream, decoder never reached the footer")
	}
	desc := d.Descriptor()
	return raw, Header{Width: desc.Width, Height: desc.Height, Channels: desc.Channels, Colorspace: desc.Colorspace}, nil
}

// Encode encodes raw interleaved pixel bytes (channels bytes per pixel,
// row-major, width*height pixels) into a complete QOI buffer.
func Encode(raw []byte, width, height uint32, channels, colorspace uint8) ([]byte, error) {
	expected := uint64(width) * uint64(height) * uint64(channels)
	if uint64(len(raw)) != expected {
		return nil, fmt.Errorf("qoi: expected %d bytes of raw pixel data for a %dx%d image at %d channels, got %d", expected, width, height, channels, len(raw))
	}

	e := qoicore.NewEncoder(width, height, channels, colorspace)
	out := make([]byte, 0, len(raw)+qoicore.HeaderSize+len(qoicore.EndMarker))
	buf := make([]byte, scratchSize)
	for _, b := range raw {
		n, err := e.EncodeByte(b, buf)
		if err != nil {
			return nil, err
		}
		out = append(out, buf[:n]...)
	}
	if !e.Done() {
		n, err := e.EncodeByte(0, buf)
		if err != nil {
			return nil, err
		}
		out = append(out, buf[:n]...)
	}
	return out, nil
}
