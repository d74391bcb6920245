// Package baseline measures the entropy coders against general-purpose
// compressors on the same input.
package baseline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"entropack/pkg/archive"
)

// Measurement is the outcome of one compressor on one input.
type Measurement struct {
	Name    string
	Size    int64 // compressed bytes, including any header
	Elapsed time.Duration
}

// Ratio returns Size over original, or 0 for empty input.
func (m Measurement) Ratio(original int64) float64 {
	if original == 0 {
		return 0
	}
	return float64(m.Size) / float64(original)
}

type compressor struct {
	name string
	run  func(ctx context.Context, data []byte) (int64, error)
}

var compressors = []compressor{
	{archive.Huffman.String(), packed(archive.Huffman)},
	{archive.ShannonFano.String(), packed(archive.ShannonFano)},
	{"LZ4", lz4Size},
	{"Zstandard", zstdSize},
}

// Measure compresses data with every coder and reports the sizes in a fixed
// order: Huffman, Shannon-Fano, LZ4, Zstandard.
func Measure(ctx context.Context, data []byte) ([]Measurement, error) {
	out := make([]Measurement, 0, len(compressors))
	for _, c := range compressors {
		start := time.Now()
		n, err := c.run(ctx, data)
		if err != nil {
			return out, fmt.Errorf("%s: %w", c.name, err)
		}
		out = append(out, Measurement{Name: c.name, Size: n, Elapsed: time.Since(start)})
	}
	return out, nil
}

func packed(alg archive.Algorithm) func(context.Context, []byte) (int64, error) {
	return func(ctx context.Context, data []byte) (int64, error) {
		entries := []archive.Entry{{RelPath: "data", OrigPath: "data", Size: int64(len(data))}}
		blob, err := archive.Pack(ctx, alg, entries, data)
		if err != nil {
			return 0, err
		}
		return int64(len(blob)), nil
	}
}

func lz4Size(_ context.Context, data []byte) (int64, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close LZ4 writer: %w", err)
	}
	return int64(buf.Len()), nil
}

func zstdSize(_ context.Context, data []byte) (int64, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, err
	}
	defer enc.Close()
	return int64(len(enc.EncodeAll(data, nil))), nil
}
