package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrNoPaths = errors.New("archive: no input paths")

// splitPath turns an absolute OS path into segments.  Only the platform's
// separators split; a backslash in a Unix file name stays in its segment.
func splitPath(p string) []string {
	p = filepath.ToSlash(p)
	return strings.Split(strings.TrimSuffix(p, "/"), "/")
}

func joinSegments(segs []string) string {
	joined := strings.Join(segs, "/")
	if len(segs) == 1 {
		// Root of a Unix path ("") or a drive ("C:").
		joined += "/"
	}
	return filepath.FromSlash(joined)
}

// CommonBase returns the directory used to compute relative paths.  A single
// input uses its parent directory.  Several inputs use the longest run of
// leading path segments shared by all of them, compared case-insensitively,
// never consuming the last segment of any input.
func CommonBase(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNoPaths
	}

	abs := make([][]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("absolute path of %s: %w", p, err)
		}
		abs[i] = splitPath(a)
	}

	if len(abs) == 1 {
		return joinSegments(abs[0][:len(abs[0])-1]), nil
	}

	shared := len(abs[0]) - 1
	for _, segs := range abs[1:] {
		if len(segs)-1 < shared {
			shared = len(segs) - 1
		}
		for i := 0; i < shared; i++ {
			if !strings.EqualFold(segs[i], abs[0][i]) {
				shared = i
				break
			}
		}
	}
	if shared == 0 {
		// Different drives share nothing; fall back to the first root.
		shared = 1
	}
	return joinSegments(abs[0][:shared]), nil
}

// RelativePaths returns, for each input, its path relative to CommonBase
// using '/' separators.
func RelativePaths(paths []string) ([]string, error) {
	base, err := CommonBase(paths)
	if err != nil {
		return nil, err
	}
	baseSegs := splitPath(base)

	rel := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("absolute path of %s: %w", p, err)
		}
		segs := splitPath(a)
		if len(segs) <= len(baseSegs) {
			return nil, fmt.Errorf("path %s is not below %s", p, base)
		}
		rel[i] = strings.Join(segs[len(baseSegs):], "/")
	}
	return rel, nil
}

// localPath converts a stored '/'-separated relative path into an OS path and
// rejects paths that would escape the extraction root.
func localPath(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if local == "" || filepath.IsAbs(local) || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: unsafe entry path %q", ErrFormat, rel)
	}
	return local, nil
}
