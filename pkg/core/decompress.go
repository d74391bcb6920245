package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"entropack/pkg/archive"
	"entropack/pkg/envelope"
	"entropack/pkg/opctl"
)

// Decompress extracts the archive at archivePath into outDir (the archive's
// directory when empty) and returns the written paths.  The algorithm comes
// from opts.Algorithm or the archive suffix.
func Decompress(ctx context.Context, archivePath, outDir string, opts Options) ([]string, error) {
	alg, err := opts.decompressAlgorithm(archivePath)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		outDir = filepath.Dir(archivePath)
	}

	blob, err := os.ReadFile(archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrInvalidInput, archivePath)
		}
		return nil, ioErr("read", archivePath, err)
	}

	if opts.Password == "" {
		if envelope.IsEncrypted(archivePath) {
			return nil, fmt.Errorf("%w: %s is encrypted", ErrPasswordRequired, archivePath)
		}
	} else {
		if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
			return nil, err
		}
		blob, err = envelope.Decrypt(blob, opts.Password)
		if err != nil {
			return nil, fmt.Errorf("decrypt %s: %w", archivePath, err)
		}
	}

	if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
		return nil, err
	}
	u, err := archive.Unpack(ctx, alg, blob)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, err
		}
		if opts.Password != "" && errors.Is(err, archive.ErrFormat) {
			// Padding happened to validate under a wrong key.
			return nil, fmt.Errorf("decrypt %s: %w: %w", archivePath, ErrDecryption, err)
		}
		return nil, fmt.Errorf("decompress %s: %w", archivePath, err)
	}

	opts.Progress.Grow(int64(len(u.Data)))

	written, err := archive.Extract(ctx, opts.Gate, u, outDir)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, archive.ErrFormat) {
			return nil, fmt.Errorf("decompress %s: %w", archivePath, err)
		}
		return nil, ioErr("extract", archivePath, err)
	}
	opts.Progress.Add(int64(len(u.Data)))
	log.Infof("extracted %d file(s) from %s into %s", len(written), archivePath, outDir)
	return written, nil
}
