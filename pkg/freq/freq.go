// Package freq counts byte occurrences.
package freq

// Table maps each byte value to its number of occurrences.  It is built once
// from a full input buffer and never modified afterwards.
type Table struct {
	counts [256]int64
	total  int64
}

// Count builds a Table from data.
func Count(data []byte) Table {
	var t Table
	for _, b := range data {
		t.counts[b]++
	}
	t.total = int64(len(data))
	return t
}

// FromCounts builds a Table from explicit counts.  Negative counts are
// treated as zero.
func FromCounts(counts map[byte]int64) Table {
	var t Table
	for sym, c := range counts {
		if c > 0 {
			t.counts[sym] = c
			t.total += c
		}
	}
	return t
}

// Of returns the count for one byte value.
func (t Table) Of(sym byte) int64 {
	return t.counts[sym]
}

// Total returns the sum of all counts.
func (t Table) Total() int64 {
	return t.total
}

// Symbols returns the byte values with a non-zero count in ascending order.
// Both code builders insert symbols in this order.
func (t Table) Symbols() []byte {
	syms := make([]byte, 0, 256)
	for i, c := range t.counts {
		if c > 0 {
			syms = append(syms, byte(i))
		}
	}
	return syms
}

// Distinct returns the number of byte values with a non-zero count.
func (t Table) Distinct() int {
	n := 0
	for _, c := range t.counts {
		if c > 0 {
			n++
		}
	}
	return n
}
