package archive

import (
	"fmt"
	"strings"
)

// Algorithm selects the entropy coder used for an archive.
type Algorithm byte

const (
	Huffman Algorithm = iota + 1
	ShannonFano
)

// Suffixes for single-file archives and folder archive directories.
const (
	HuffmanExt           = ".huff"
	ShannonFanoExt       = ".shf"
	FolderSuffix         = "_archive"
	ManifestName         = "archive_info.txt"
	defaultAlgorithmName = "huffman"
)

func (a Algorithm) String() string {
	switch a {
	case Huffman:
		return "Huffman"
	case ShannonFano:
		return "Shannon-Fano"
	default:
		return fmt.Sprintf("Algorithm(%d)", byte(a))
	}
}

// Ext returns the suffix appended to single-file archive names.
func (a Algorithm) Ext() string {
	switch a {
	case ShannonFano:
		return ShannonFanoExt
	default:
		return HuffmanExt
	}
}

// FolderExt returns the suffix of folder archive directories, for example
// ".huff_archive".
func (a Algorithm) FolderExt() string {
	return a.Ext() + FolderSuffix
}

// Valid reports whether a names a known coder.
func (a Algorithm) Valid() bool {
	return a == Huffman || a == ShannonFano
}

// ParseAlgorithm accepts the names used on the command line.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", defaultAlgorithmName, "huff":
		return Huffman, nil
	case "shannon-fano", "shannonfano", "shf", "sf":
		return ShannonFano, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", name)
	}
}

// DetectAlgorithm infers the algorithm from an archive file or folder name.
func DetectAlgorithm(path string) (Algorithm, bool) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, HuffmanExt), strings.HasSuffix(lower, HuffmanExt+FolderSuffix):
		return Huffman, true
	case strings.HasSuffix(lower, ShannonFanoExt), strings.HasSuffix(lower, ShannonFanoExt+FolderSuffix):
		return ShannonFano, true
	default:
		return 0, false
	}
}
