package core

import (
	"time"

	"entropack/pkg/archive"
)

// CompressionResult describes one written archive.  Sizes are in bits
// (byte count × 8), the unit the manifest reports.
type CompressionResult struct {
	ArchivePath        string
	RelPath            string // set for files of a folder archive
	OriginalSizeBits   int64
	CompressedSizeBits int64
	IsEncrypted        bool
}

// OriginalBytes returns the uncompressed size in bytes.
func (r CompressionResult) OriginalBytes() int64 { return r.OriginalSizeBits / 8 }

// CompressedBytes returns the archive size in bytes.
func (r CompressionResult) CompressedBytes() int64 { return r.CompressedSizeBits / 8 }

// Ratio returns compressed size over original size, or 0 for empty input.
func (r CompressionResult) Ratio() float64 {
	return ratio(r.CompressedSizeBits, r.OriginalSizeBits)
}

func ratio(compressed, original int64) float64 {
	if original == 0 {
		return 0
	}
	return float64(compressed) / float64(original)
}

// FileFailure records a file skipped during a folder operation.
type FileFailure struct {
	Path string
	Err  error
}

// FolderResult aggregates a folder compression.
type FolderResult struct {
	Folder       string
	ArchiveDir   string
	ManifestPath string
	Algorithm    archive.Algorithm
	Encrypted    bool
	Created      time.Time

	Files               []CompressionResult
	Failed              []FileFailure
	TotalOriginalBits   int64
	TotalCompressedBits int64
}

func (r *FolderResult) add(res CompressionResult) {
	r.Files = append(r.Files, res)
	r.TotalOriginalBits += res.OriginalSizeBits
	r.TotalCompressedBits += res.CompressedSizeBits
}

// Ratio returns the overall compressed over original size.
func (r *FolderResult) Ratio() float64 {
	return ratio(r.TotalCompressedBits, r.TotalOriginalBits)
}

// ExtractResult aggregates a folder decompression.
type ExtractResult struct {
	ArchiveDir string
	OutputDir  string
	Encrypted  bool
	Extracted  []string
	Failed     []FileFailure
}
