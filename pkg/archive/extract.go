package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"entropack/pkg/opctl"
)

// Extract writes every entry of u below outDir, creating intermediate
// directories.  Each file is written to a temporary name and renamed into
// place, so an interrupted extraction never leaves a partial file.  On
// cancellation the files already written by this call are removed.
func Extract(ctx context.Context, gate *opctl.Gate, u *Unpacked, outDir string) ([]string, error) {
	written := make([]string, 0, len(u.Entries))
	for i, e := range u.Entries {
		if err := opctl.Checkpoint(ctx, gate); err != nil {
			removeAll(written)
			return nil, err
		}

		local, err := localPath(e.RelPath)
		if err != nil {
			return written, err
		}
		dest := filepath.Join(outDir, local)
		if err := WriteFile(dest, u.File(i)); err != nil {
			return written, fmt.Errorf("extract %s: %w", e.RelPath, err)
		}
		written = append(written, dest)
	}
	return written, nil
}

// WriteFile writes data to a temporary file next to dest and renames it into
// place, creating parent directories as needed.
func WriteFile(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
