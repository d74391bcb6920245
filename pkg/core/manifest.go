package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"entropack/pkg/archive"
)

const manifestTimeLayout = "2006-01-02 15:04:05"

// Manifest is the plain-text summary stored next to the files of a folder
// archive.
type Manifest struct {
	Folder         string
	Created        time.Time
	Algorithm      string
	FileCount      int
	Encrypted      bool
	OriginalBits   int64
	CompressedBits int64
	Files          []ManifestFile
}

// ManifestFile is one line of the per-file breakdown.
type ManifestFile struct {
	RelPath        string
	OriginalBits   int64
	CompressedBits int64
}

func manifestFor(r *FolderResult) Manifest {
	m := Manifest{
		Folder:         r.Folder,
		Created:        r.Created,
		Algorithm:      r.Algorithm.String(),
		FileCount:      len(r.Files),
		Encrypted:      r.Encrypted,
		OriginalBits:   r.TotalOriginalBits,
		CompressedBits: r.TotalCompressedBits,
	}
	for _, f := range r.Files {
		m.Files = append(m.Files, ManifestFile{
			RelPath:        f.RelPath,
			OriginalBits:   f.OriginalSizeBits,
			CompressedBits: f.CompressedSizeBits,
		})
	}
	return m
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteTo renders the manifest.
func (m Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Archive Information\n")
	fmt.Fprintf(&buf, "===================\n")
	fmt.Fprintf(&buf, "Original Folder: %s\n", m.Folder)
	fmt.Fprintf(&buf, "Created: %s\n", m.Created.Format(manifestTimeLayout))
	fmt.Fprintf(&buf, "Algorithm: %s\n", m.Algorithm)
	fmt.Fprintf(&buf, "Files: %d\n", m.FileCount)
	fmt.Fprintf(&buf, "Encrypted: %s\n", yesNo(m.Encrypted))
	fmt.Fprintf(&buf, "Original Size: %d bits\n", m.OriginalBits)
	fmt.Fprintf(&buf, "Compressed Size: %d bits\n", m.CompressedBits)
	fmt.Fprintf(&buf, "Compression Ratio: %.2f%%\n", ratio(m.CompressedBits, m.OriginalBits)*100)
	fmt.Fprintf(&buf, "\nFiles:\n")
	for _, f := range m.Files {
		fmt.Fprintf(&buf, "  %s: %d -> %d bits (%.2f%%)\n",
			f.RelPath, f.OriginalBits, f.CompressedBits, ratio(f.CompressedBits, f.OriginalBits)*100)
	}
	return buf.WriteTo(w)
}

// WriteManifest writes m as archive_info.txt inside dir.
func WriteManifest(dir string, m Manifest) (string, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", err
	}
	path := filepath.Join(dir, archive.ManifestName)
	if err := archive.WriteFile(path, buf.Bytes()); err != nil {
		return "", ioErr("write", path, err)
	}
	return path, nil
}

// ReadManifest parses a manifest.  Unknown lines are ignored; only the
// "Encrypted:" line is needed to decompress.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	f, err := os.Open(path)
	if err != nil {
		return m, err
	}
	defer f.Close()

	inFiles := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if inFiles {
			if mf, ok := parseManifestFile(line); ok {
				m.Files = append(m.Files, mf)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Original Folder":
			m.Folder = value
		case "Created":
			m.Created, _ = time.ParseInLocation(manifestTimeLayout, value, time.Local)
		case "Algorithm":
			m.Algorithm = value
		case "Files":
			if value == "" {
				inFiles = true
				continue
			}
			m.FileCount, _ = strconv.Atoi(value)
		case "Encrypted":
			m.Encrypted = strings.EqualFold(value, "yes")
		case "Original Size":
			m.OriginalBits = parseBits(value)
		case "Compressed Size":
			m.CompressedBits = parseBits(value)
		}
	}
	if err := sc.Err(); err != nil {
		return m, ioErr("read", path, err)
	}
	return m, nil
}

func parseBits(value string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSuffix(value, " bits"), 10, 64)
	return n
}

// parseManifestFile reads "  rel/path: 800 -> 400 bits (50.00%)".
func parseManifestFile(line string) (ManifestFile, bool) {
	line = strings.TrimSpace(line)
	i := strings.LastIndex(line, ": ")
	if i < 0 {
		return ManifestFile{}, false
	}
	var mf ManifestFile
	mf.RelPath = line[:i]
	if _, err := fmt.Sscanf(line[i+2:], "%d -> %d bits", &mf.OriginalBits, &mf.CompressedBits); err != nil {
		return ManifestFile{}, false
	}
	return mf, true
}
