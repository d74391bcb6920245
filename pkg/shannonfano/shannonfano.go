// Package shannonfano builds Shannon-Fano prefix codes by recursively
// splitting a frequency-sorted symbol list, and encodes and decodes with them.
//
// Codes are kept as strings of '0' and '1' characters, which is also how the
// archive format stores them.
package shannonfano

import (
	"errors"
	"sort"

	"entropack/pkg/freq"
)

var (
	ErrUnknownSymbol = errors.New("shannonfano: symbol missing from code table")
	ErrInvalidCode   = errors.New("shannonfano: bit stream matches no code")
	ErrTruncated     = errors.New("shannonfano: bit stream ended before all symbols were decoded")
)

// MaxCodeLen is the longest code Decode will accumulate before giving up.
const MaxCodeLen = 255

// Table maps each symbol to its code.
type Table map[byte]string

// MaxLen returns the length of the longest code.
func (t Table) MaxLen() int {
	longest := 0
	for _, code := range t {
		if len(code) > longest {
			longest = len(code)
		}
	}
	return longest
}

type item struct {
	symbol byte
	freq   int64
}

// span is a half-open range of the sorted list still to be split.
type span struct {
	lo, hi int
	prefix string
}

// Build sorts the symbols of t by descending frequency (ties keep ascending
// byte order) and splits the list top down.  Each split point is the first
// index at which the running total of the left part reaches half of the
// part's total, using integer division.
func Build(t freq.Table) Table {
	items := make([]item, 0, 256)
	for _, sym := range t.Symbols() {
		items = append(items, item{symbol: sym, freq: t.Of(sym)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].freq > items[j].freq })

	table := make(Table, len(items))
	if len(items) == 0 {
		return table
	}

	stack := []span{{lo: 0, hi: len(items)}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.hi-s.lo == 1 {
			code := s.prefix
			if code == "" {
				code = "0"
			}
			table[items[s.lo].symbol] = code
			continue
		}

		split := splitIndex(items[s.lo:s.hi])
		stack = append(stack,
			span{lo: s.lo + split + 1, hi: s.hi, prefix: s.prefix + "1"},
			span{lo: s.lo, hi: s.lo + split + 1, prefix: s.prefix + "0"},
		)
	}
	return table
}

// splitIndex returns the index of the last element of the left partition.
func splitIndex(items []item) int {
	var total int64
	for _, it := range items {
		total += it.freq
	}
	half := total / 2

	split := 0
	var running int64
	for i, it := range items {
		running += it.freq
		if running >= half {
			split = i
			break
		}
	}
	// Both halves must be non-empty.
	if split >= len(items)-1 {
		split = len(items) - 2
	}
	return split
}
