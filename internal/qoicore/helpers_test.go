package qoicore

import "testing"

// scratchSize is comfortably larger than any single DecodeByte/EncodeByte
// worst-case emission used in these tests.
const scratchSize = 4096

func decodeAll(t *testing.T, data []byte, channelsOverride uint8) ([]byte, error) {
	t.Helper()
	d := NewDecoder(channelsOverride)
	var raw []byte
	buf := make([]byte, scratchSize)
	for _, b := range data {
		n, err := d.DecodeByte(b, buf)
		if err != nil {
			return raw, err
		}
		raw = append(raw, buf[:n]...)
	}
	return raw, nil
}

// decodeChunked drives the decoder the same way decodeAll does, but is
// kept distinct so tests reading it in isolation don't need to cross-check
// against decodeAll's implementation.
func decodeChunked(t *testing.T, data []byte, chunkSizes []int, channelsOverride uint8) ([]byte, error) {
	t.Helper()
	d := NewDecoder(channelsOverride)
	var raw []byte
	buf := make([]byte, scratchSize)
	pos := 0
	for _, size := range chunkSizes {
		for i := 0; i < size && pos < len(data); i++ {
			n, err := d.DecodeByte(data[pos], buf)
			if err != nil {
				return raw, err
			}
			raw = append(raw, buf[:n]...)
			pos++
		}
	}
	for ; pos < len(data); pos++ {
		n, err := d.DecodeByte(data[pos], buf)
		if err != nil {
			return raw, err
		}
		raw = append(raw, buf[:n]...)
	}
	return raw, nil
}

func encodeAll(t *testing.T, raw []byte, width, height uint32, channels, colorspace uint8) ([]byte, error) {
	t.Helper()
	e := NewEncoder(width, height, channels, colorspace)
	var out []byte
	buf := make([]byte, scratchSize)
	// The first call emits the header and the call that completes the last
	// pixel emits the footer; a zero byte is fed afterwards only when the
	// encoder has not reached Done (a zero-pixel image or short input).
	for _, b := range raw {
		n, err := e.EncodeByte(b, buf)
		if err != nil {
			return out, err
		}
		out = append(out, buf[:n]...)
	}
	if !e.Done() {
		n, err := e.EncodeByte(0, buf)
		if err != nil {
			return out, err
		}
		out = append(out, buf[:n]...)
	}
	return out, nil
}
