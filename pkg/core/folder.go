package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"entropack/pkg/archive"
	"entropack/pkg/envelope"
	"entropack/pkg/opctl"
)

// collectFiles lists the regular files below root as '/'-separated paths
// relative to root, in lexical order.
func collectFiles(root string) ([]string, error) {
	var rel []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		r, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		rel = append(rel, filepath.ToSlash(r))
		return nil
	})
	if err != nil {
		return nil, ioErr("walk", root, err)
	}
	sort.Strings(rel)
	return rel, nil
}

// FolderArchiveDir returns the default archive directory for folder.
func FolderArchiveDir(folder string, alg archive.Algorithm) string {
	return filepath.Clean(folder) + alg.FolderExt()
}

// CompressFolder compresses every file below folder into its own archive,
// mirrored inside an archive directory (opts.Output, or folder plus
// ".huff_archive" / ".shf_archive"), and writes archive_info.txt there.
//
// A file that fails is logged and recorded in FolderResult.Failed; the batch
// continues.  On cancellation the files finished so far are kept, the
// manifest describes them, and the returned error matches ErrCancelled.
func CompressFolder(ctx context.Context, folder string, opts Options) (*FolderResult, error) {
	alg, err := opts.compressAlgorithm()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: folder %s does not exist", ErrInvalidInput, folder)
		}
		return nil, ioErr("stat", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a folder", ErrInvalidInput, folder)
	}

	files, err := collectFiles(folder)
	if err != nil {
		return nil, err
	}

	archiveDir := opts.Output
	if archiveDir == "" {
		archiveDir = FolderArchiveDir(folder, alg)
	}
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return nil, ioErr("create", archiveDir, err)
	}

	result := &FolderResult{
		Folder:     folder,
		ArchiveDir: archiveDir,
		Algorithm:  alg,
		Encrypted:  opts.Password != "",
		Created:    time.Now(),
	}
	log.Infof("compressing %d files from %s into %s", len(files), folder, archiveDir)

	var cancelled error
	for _, rel := range files {
		if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
			cancelled = err
			break
		}

		src := filepath.Join(folder, filepath.FromSlash(rel))
		fileOpts := opts
		fileOpts.Algorithm = alg
		fileOpts.Output = filepath.Join(archiveDir, filepath.FromSlash(rel)) + alg.Ext()
		fileOpts.OnResult = nil

		res, err := Compress(ctx, []string{src}, fileOpts)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				cancelled = err
				break
			}
			log.Warningf("skipping %s: %v", src, err)
			result.Failed = append(result.Failed, FileFailure{Path: src, Err: err})
			continue
		}
		res.RelPath = rel
		result.add(*res)
		if opts.OnResult != nil {
			opts.OnResult(*res)
		}
	}

	path, err := WriteManifest(archiveDir, manifestFor(result))
	if err != nil {
		log.Errorf("writing manifest for %s: %v", folder, err)
		return result, fmt.Errorf("compress folder %s: %w", folder, err)
	}
	result.ManifestPath = path

	if cancelled != nil {
		log.Infof("compression of %s cancelled after %d files", folder, len(result.Files))
		return result, cancelled
	}
	log.Infof("compressed %s: %d files, %d skipped, %.1f%%",
		folder, len(result.Files), len(result.Failed), result.Ratio()*100)
	return result, nil
}

// DecompressFolder extracts every archive file inside archiveDir into outDir,
// mirroring the sub-directories.  The manifest decides whether a password
// is needed; without a manifest the folder is assumed to be unencrypted and a
// given password is only used for files that look encrypted.
// outDir defaults to the archive directory name without its suffix plus
// "_extracted".
func DecompressFolder(ctx context.Context, archiveDir, outDir string, opts Options) (*ExtractResult, error) {
	info, err := os.Stat(archiveDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: folder %s does not exist", ErrInvalidInput, archiveDir)
		}
		return nil, ioErr("stat", archiveDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a folder", ErrInvalidInput, archiveDir)
	}

	alg, err := opts.decompressAlgorithm(archiveDir)
	if err != nil {
		return nil, err
	}
	if outDir == "" {
		base := filepath.Clean(archiveDir)
		if strings.HasSuffix(strings.ToLower(base), alg.FolderExt()) {
			base = base[:len(base)-len(alg.FolderExt())]
		}
		outDir = base + "_extracted"
	}

	encrypted := false
	manifest, err := ReadManifest(filepath.Join(archiveDir, archive.ManifestName))
	switch {
	case err == nil:
		encrypted = manifest.Encrypted
	case errors.Is(err, os.ErrNotExist):
		log.Warningf("%s has no %s, assuming it is not encrypted", archiveDir, archive.ManifestName)
	default:
		log.Warningf("reading manifest of %s, assuming it is not encrypted: %v", archiveDir, err)
	}

	password := opts.Password
	if encrypted && password == "" {
		if opts.Prompt == nil {
			return nil, fmt.Errorf("%w: %s is encrypted", ErrPasswordRequired, archiveDir)
		}
		var ok bool
		if password, ok = opts.Prompt(archiveDir, 1); !ok {
			return nil, fmt.Errorf("%w: %s is encrypted", ErrPasswordRequired, archiveDir)
		}
	}

	files, err := collectFiles(archiveDir)
	if err != nil {
		return nil, err
	}
	result := &ExtractResult{ArchiveDir: archiveDir, OutputDir: outDir, Encrypted: encrypted}

	for _, rel := range files {
		if !strings.HasSuffix(strings.ToLower(rel), alg.Ext()) {
			continue
		}
		if err := opctl.Checkpoint(ctx, opts.Gate); err != nil {
			return result, err
		}

		src := filepath.Join(archiveDir, filepath.FromSlash(rel))
		target := filepath.Join(outDir, filepath.Dir(filepath.FromSlash(rel)))
		fileOpts := opts
		fileOpts.Algorithm = alg
		fileOpts.Password = ""
		if encrypted || envelope.IsEncrypted(src) {
			fileOpts.Password = password
		}

		written, err := decompressWithRetry(ctx, src, target, &fileOpts)
		if err != nil && !encrypted && fileOpts.Password == "" && password != "" && errors.Is(err, ErrFormat) {
			// The encryption check can miss; try the caller's password once.
			fileOpts.Password = password
			written, err = decompressWithRetry(ctx, src, target, &fileOpts)
		}
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return result, err
			}
			log.Warningf("skipping %s: %v", src, err)
			result.Failed = append(result.Failed, FileFailure{Path: src, Err: err})
			continue
		}
		// A password accepted after re-entry is reused for later files.
		if fileOpts.Password != "" {
			password = fileOpts.Password
		}
		result.Extracted = append(result.Extracted, written...)
	}

	log.Infof("extracted %d files from %s into %s, %d skipped",
		len(result.Extracted), archiveDir, outDir, len(result.Failed))
	return result, nil
}

// decompressWithRetry asks opts.Prompt for a new password while decryption
// keeps failing, up to maxPasswordAttempts times.
func decompressWithRetry(ctx context.Context, src, target string, opts *Options) ([]string, error) {
	written, err := Decompress(ctx, src, target, *opts)
	for attempt := 1; err != nil && opts.Prompt != nil && attempt <= maxPasswordAttempts; attempt++ {
		if !errors.Is(err, ErrDecryption) && !errors.Is(err, ErrPasswordRequired) {
			break
		}
		password, ok := opts.Prompt(src, attempt)
		if !ok {
			break
		}
		opts.Password = password
		written, err = Decompress(ctx, src, target, *opts)
	}
	return written, err
}
