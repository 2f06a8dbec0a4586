package qoi

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamqoi/qoi/internal/qoicore"
)

func TestReadHeader(t *testing.T) {
	data := []byte{'q', 'o', 'i', 'f', 0, 0, 0, 4, 0, 0, 0, 3, 4, 0}
	hdr, err := ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, Header{Width: 4, Height: 3, Channels: 4, Colorspace: 0}, hdr)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	data := []byte{'b', 'a', 'd', '!', 0, 0, 0, 1, 0, 0, 0, 1, 3, 0}
	_, err := ReadHeader(data)
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	raw := make([]byte, 8*8*4)
	rng.Read(raw)

	encoded, err := Encode(raw, 8, 8, qoicore.ChannelsRGBA, qoicore.ColorspaceSRGB)
	require.NoError(t, err)

	decoded, hdr, err := Decode(encoded, qoicore.ChannelsFromHeader)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
	assert.Equal(t, Header{Width: 8, Height: 8, Channels: qoicore.ChannelsRGBA, Colorspace: qoicore.ColorspaceSRGB}, hdr)
}

func TestEncodeRejectsWrongBufferLength(t *testing.T) {
	_, err := Encode([]byte{1, 2, 3}, 2, 2, qoicore.ChannelsRGB, qoicore.ColorspaceSRGB)
	require.Error(t, err)
}

func TestImageRoundTripViaStandardRegistry(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 5, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, ImageEncode(&buf, src))

	decoded, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, src.At(x, y), decoded.At(x, y))
		}
	}
}
