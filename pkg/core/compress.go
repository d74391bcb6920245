package core

import (
	"context"
	"errors"
	"fmt"
	"os"

	"entropack/pkg/archive"
	"entropack/pkg/envelope"
	"entropack/pkg/opctl"
)

// Compress packs the files at paths into one archive.  The archive goes to
// opts.Output, or next to the first input with the algorithm's suffix.  When
// opts.Password is set the archive is encrypted.  Cancellation returns an
// error matching ErrCancelled and leaves no archive behind.
func Compress(ctx context.Context, paths []string, opts Options) (*CompressionResult, error) {
	alg, err := opts.compressAlgorithm()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files given", ErrInvalidInput)
	}

	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidInput, p)
			}
			return nil, ioErr("stat", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a folder", ErrInvalidInput, p)
		}
		total += info.Size()
	}

	relPaths, err := archive.RelativePaths(paths)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	output := opts.Output
	if output == "" {
		output = paths[0] + alg.Ext()
	}
	opts.Progress.Grow(total)

	entries := make([]archive.Entry, 0, len(paths))
	data := make([]byte, 0, total)
	for i, p := range paths {
		if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, ioErr("read", p, err)
		}
		entries = append(entries, archive.Entry{
			RelPath:  relPaths[i],
			OrigPath: p,
			Size:     int64(len(content)),
			Offset:   int64(len(data)),
		})
		data = append(data, content...)
	}

	if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
		return nil, err
	}
	log.Debugf("packing %d files (%d bytes) with %v", len(entries), len(data), alg)
	blob, err := archive.Pack(ctx, alg, entries, data)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("compress %s: %w", paths[0], err)
	}

	encrypted := opts.Password != ""
	if encrypted {
		if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
			return nil, err
		}
		blob, err = envelope.Encrypt(blob, opts.Password)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", output, err)
		}
	}

	if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
		return nil, err
	}
	if err := archive.WriteFile(output, blob); err != nil {
		return nil, ioErr("write", output, err)
	}
	opts.Progress.Add(int64(len(data)))

	res := &CompressionResult{
		ArchivePath:        output,
		OriginalSizeBits:   int64(len(data)) * 8,
		CompressedSizeBits: int64(len(blob)) * 8,
		IsEncrypted:        encrypted,
	}
	log.Infof("compressed %d file(s) into %s (%.1f%%)", len(entries), output, res.Ratio()*100)
	return res, nil
}
