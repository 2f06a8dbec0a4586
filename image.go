package qoi

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/streamqoi/qoi/internal/qoicore"
)

func init() {
	image.RegisterFormat("qoi", qoicore.MagicBytes, ImageDecode, ImageDecodeConfig)
}

// ImageDecode decodes a QOI stream into an image.Image.
func ImageDecode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, hdr, err := Decode(data, qoicore.ChannelsRGBA)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(hdr.Width), int(hdr.Height)))
	copy(img.Pix, raw)
	return img, nil
}

// ImageDecodeConfig reports an image.Config without decoding the pixel
// data, for image.DecodeConfig / the image.RegisterFormat registry.
func ImageDecodeConfig(r io.Reader) (image.Config, error) {
	buf := make([]byte, qoicore.HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return image.Config{}, err
	}
	hdr, err := ReadHeader(buf)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
		ColorModel: color.NRGBAModel,
	}, nil
}

func imageToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// ImageEncode encodes m as a QOI stream, always at 4 channels and the sRGB
// colorspace (the NRGBA model the stdlib image package standardizes on).
func ImageEncode(w io.Writer, m image.Image) error {
	nrgba := imageToNRGBA(m)
	bounds := nrgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	data, err := Encode(nrgba.Pix, uint32(width), uint32(height), qoicore.ChannelsRGBA, qoicore.ColorspaceSRGB)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
