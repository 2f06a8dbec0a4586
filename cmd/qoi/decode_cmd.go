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

func newDecodeCmd() *cobra.Command {
	var output string
	var channelsOverride uint8

	cmd := &cobra.Command{
		Use:   "decode <qoi-file>",
		Short: "Decode a QOI stream into raw interleaved pixel bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if channelsOverride != qoicore.ChannelsFromHeader &&
				channelsOverride != qoicore.ChannelsRGB &&
				channelsOverride != qoicore.ChannelsRGBA {
				return fmt.Errorf("qoi decode: --channels must be 0 (header), 3, or 4, got %d", channelsOverride)
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			if output == "" {
				output = args[0] + ".raw"
			}
			out, err := os.Create(output)
			if err != nil {
				return err
			}
			defer out.Close()

			log.Info().Str("input", args[0]).Str("output", output).
				Uint8("channels_override", channelsOverride).Msg("decoding")

			return runDecode(in, out, channelsOverride)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "output path (default: <input>.raw)")
	cmd.Flags().Uint8Var(&channelsOverride, "channels", qoicore.ChannelsFromHeader,
		"force decoder output channels: 0 (from header), 3, or 4")
	return cmd
}

// runDecode mirrors main.c's decode loop: read one encoded byte at a time
// from a buffered reader, decode it, and write whatever pixel bytes came
// out through a buffered writer — flushed at the end, not per-byte, so a
// slow disk never stalls the byte pump.
func runDecode(r io.Reader, w io.Writer, channelsOverride uint8) error {
	br := bufio.NewReaderSize(r, scratchSize)
	bw := bufio.NewWriterSize(w, scratchSize)

	d := qoicore.NewDecoder(channelsOverride)
	scratch := make([]byte, scratchSize)

	var bar *progressbar.ProgressBar
	offset := 0
	var b byte
	var readErr error
	for {
		b, readErr = br.ReadByte()
		if readErr != nil {
			break
		}
		n, err := d.DecodeByte(b, scratch)
		if err != nil {
			return fmt.Errorf("qoi decode: byte %#x at offset %d: %w", b, offset, err)
		}
		if bar == nil && d.Descriptor().Width != 0 {
			bar = progressbar.Default(int64(d.Descriptor().PixelCount()), "decoding")
			defer bar.Close()
		}
		if _, err := bw.Write(scratch[:n]); err != nil {
			return err
		}
		if bar != nil && n > 0 {
			_ = bar.Add(n / int(d.Descriptor().Channels))
		}
		offset++
		if d.Done() {
			break
		}
	}
	if readErr != nil && readErr != io.EOF {
		return readErr
	}
	if !d.Done() {
		return fmt.Errorf("qoi decode: truncated stream, never reached the footer")
	}
	return bw.Flush()
}
