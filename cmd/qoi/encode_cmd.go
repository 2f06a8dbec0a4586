package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/streamqoi/qoi/internal/qoicore"
)

// scratchSize matches main.c's double-buffered scratch: big enough that a
// single worst-case emission (a flushed 62-pixel run plus a new opcode)
// never has to grow the buffer mid-byte.
const scratchSize = 1 << 16

func newEncodeCmd() *cobra.Command {
	var width, height uint32
	var channels, colorspace uint8
	var output string

	cmd := &cobra.Command{
		Use:   "encode <raw-pixel-file>",
		Short: "Encode raw interleaved pixel bytes into a QOI stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width == 0 || height == 0 {
				return fmt.Errorf("qoi encode: --width and --height are required")
			}
			if channels != qoicore.ChannelsRGB && channels != qoicore.ChannelsRGBA {
				return fmt.Errorf("qoi encode: --channels must be 3 or 4, got %d", channels)
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			if output == "" {
				output = args[0] + ".qoi"
			}
			out, err := os.Create(output)
			if err != nil {
				return err
			}
			defer out.Close()

			log.Info().Str("input", args[0]).Str("output", output).
				Uint32("width", width).Uint32("height", height).
				Uint8("channels", channels).Msg("encoding")

			return runEncode(in, out, width, height, channels, colorspace)
		},
	}

	cmd.Flags().Uint32Var(&width, "width", 0, "image width in pixels (required)")
	cmd.Flags().Uint32Var(&height, "height", 0, "image height in pixels (required)")
	cmd.Flags().Uint8Var(&channels, "channels", qoicore.ChannelsRGBA, "input channel count: 3 or 4")
	cmd.Flags().Uint8Var(&colorspace, "colorspace", qoicore.ColorspaceSRGB, "0 = sRGB, 1 = linear")
	cmd.Flags().StringVar(&output, "output", "", "output path (default: <input>.qoi)")
	return cmd
}

// runEncode drives internal/qoicore.Encoder one raw byte at a time from r,
// writing encoded bytes to w as they're produced — the same
// read-one-byte/flush-scratch-buffer shape as the reference decoder's
// main loop, mirrored for the encode direction.
func runEncode(r io.Reader, w io.Writer, width, height uint32, channels, colorspace uint8) error {
	br := bufio.NewReaderSize(r, scratchSize)
	bw := bufio.NewWriterSize(w, scratchSize)

	e := qoicore.NewEncoder(width, height, channels, colorspace)
	scratch := make([]byte, scratchSize)
	total := uint64(width) * uint64(height)

	bar := progressbar.Default(int64(total), "encoding")
	defer bar.Close()

	pixelByte := 0
	var b byte
	var readErr error
	for {
		b, readErr = br.ReadByte()
		if readErr != nil {
			break
		}
		n, err := e.EncodeByte(b, scratch)
		if err != nil {
			return fmt.Errorf("qoi encode: byte %#x at offset %d: %w", b, pixelByte, err)
		}
		if _, err := bw.Write(scratch[:n]); err != nil {
			return err
		}
		pixelByte++
		if pixelByte%int(channels) == 0 {
			_ = bar.Add(1)
		}
		if e.Done() {
			break
		}
	}
	if readErr != nil && readErr != io.EOF {
		return readErr
	}
	if !e.Done() {
		n, err := e.EncodeByte(0, scratch)
		if err != nil {
			return fmt.Errorf("qoi encode: flushing footer: %w", err)
		}
		if _, err := bw.Write(scratch[:n]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
