// Package lib provides single-call compression and decompression helpers.
// This package re-exports the functionality from the core package for
// callers that do not need cancellation, pause or progress reporting.
package lib

import (
	"context"
	"os"

	"entropack/pkg/archive"
	"entropack/pkg/core"
	"entropack/pkg/envelope"
)

// Algorithm re-exported from archive
type Algorithm = archive.Algorithm

// Re-export algorithms
const (
	Huffman     = archive.Huffman
	ShannonFano = archive.ShannonFano
)

// Results re-exported from core
type (
	CompressionResult = core.CompressionResult
	FolderResult      = core.FolderResult
	ExtractResult     = core.ExtractResult
)

// Errors re-exported from core
var (
	ErrInvalidInput     = core.ErrInvalidInput
	ErrPasswordRequired = core.ErrPasswordRequired
	ErrDecryption       = core.ErrDecryption
	ErrFormat           = core.ErrFormat
	ErrIO               = core.ErrIO
)

// Compress packs inputs into output (next to the first input when empty).
// An empty password disables encryption.
func Compress(alg Algorithm, inputs []string, output, password string) (*CompressionResult, error) {
	return core.Compress(context.Background(), inputs, core.Options{Algorithm: alg, Output: output, Password: password})
}

// Decompress extracts input into outDir (the archive's folder when empty).
func Decompress(input, outDir, password string) ([]string, error) {
	return core.Decompress(context.Background(), input, outDir, core.Options{Password: password})
}

// CompressFolder archives every file below folder.
func CompressFolder(alg Algorithm, folder, password string) (*FolderResult, error) {
	return core.CompressFolder(context.Background(), folder, core.Options{Algorithm: alg, Password: password})
}

// DecompressFolder extracts a folder archive into outDir.
func DecompressFolder(archiveDir, outDir, password string) (*ExtractResult, error) {
	return core.DecompressFolder(context.Background(), archiveDir, outDir, core.Options{Password: password})
}

// CheckPassword reports whether password opens the encrypted archive at path.
func CheckPassword(path, password string) (bool, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return envelope.ValidatePassword(blob, password), nil
}
