package freq

import (
	"bytes"
	"testing"
)

func TestCount(t *testing.T) {
	tbl := Count([]byte{0, 0, 0, 1, 1, 2})

	if tbl.Total() != 6 {
		t.Fatalf("expected total 6, got %d", tbl.Total())
	}
	for sym, want := range map[byte]int64{0: 3, 1: 2, 2: 1, 3: 0, 255: 0} {
		if got := tbl.Of(sym); got != want {
			t.Errorf("count of %d: got %d, want %d", sym, got, want)
		}
	}
	if tbl.Distinct() != 3 {
		t.Fatalf("expected 3 distinct symbols, got %d", tbl.Distinct())
	}
	if !bytes.Equal(tbl.Symbols(), []byte{0, 1, 2}) {
		t.Fatalf("unexpected symbol order %v", tbl.Symbols())
	}
}

func TestCountEmpty(t *testing.T) {
	tbl := Count(nil)
	if tbl.Total() != 0 || tbl.Distinct() != 0 || len(tbl.Symbols()) != 0 {
		t.Fatalf("expected empty table, got total=%d distinct=%d", tbl.Total(), tbl.Distinct())
	}
}

func TestFromCountsSkipsNonPositive(t *testing.T) {
	tbl := FromCounts(map[byte]int64{'a': 5, 'b': 0, 'c': -2, 'z': 1})
	if tbl.Total() != 6 {
		t.Fatalf("expected total 6, got %d", tbl.Total())
	}
	if !bytes.Equal(tbl.Symbols(), []byte{'a', 'z'}) {
		t.Fatalf("unexpected symbols %q", tbl.Symbols())
	}
}
