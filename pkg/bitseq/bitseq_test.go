package bitseq

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestAppendPacksMSBFirst(t *testing.T) {
	var s Sequence
	for _, bit := range []byte{1, 0, 1, 1, 0, 0, 0, 0, 1} {
		s = s.Append(bit)
	}

	if s.Len() != 9 {
		t.Fatalf("expected 9 bits, got %d", s.Len())
	}
	want := []byte{0xb0, 0x80}
	if !bytes.Equal(s.Bytes(), want) {
		t.Fatalf("expected packed %x, got %x", want, s.Bytes())
	}
	if s.String() != "101100001" {
		t.Fatalf("unexpected string form %q", s.String())
	}
}

func TestAppendLeavesOriginalUntouched(t *testing.T) {
	base := MustParse("01")
	longer := base.Append(1)

	if base.String() != "01" {
		t.Fatalf("base changed to %q", base.String())
	}
	if longer.String() != "011" {
		t.Fatalf("expected 011, got %q", longer.String())
	}
}

func TestEqualIgnoresPadding(t *testing.T) {
	a, err := FromBytes([]byte{0xa0}, 3)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	// Same three leading bits, garbage in the padding.
	b, err := FromBytes([]byte{0xbf}, 3)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	if !a.Equal(b) {
		t.Fatalf("expected %s == %s", a, b)
	}
	if !bytes.Equal(b.Bytes(), []byte{0xa0}) {
		t.Fatalf("padding not cleared: %x", b.Bytes())
	}

	ka, _ := a.Key()
	kb, _ := b.Key()
	if ka != kb {
		t.Fatalf("keys differ for equal sequences")
	}
}

func TestEqualDistinguishesLength(t *testing.T) {
	a := MustParse("0")
	b := MustParse("00")
	if a.Equal(b) {
		t.Fatalf("sequences of different length compared equal")
	}
	ka, _ := a.Key()
	kb, _ := b.Key()
	if ka == kb {
		t.Fatalf("keys of different length compared equal")
	}
}

func TestFromBytesRejectsShortBuffer(t *testing.T) {
	if _, err := FromBytes([]byte{0xff}, 9); !errors.Is(err, ErrBadLength) {
		t.Fatalf("expected ErrBadLength, got %v", err)
	}
	if _, err := FromBytes(nil, -1); !errors.Is(err, ErrBadLength) {
		t.Fatalf("expected ErrBadLength for negative length, got %v", err)
	}
}

func TestParseRejectsBadDigit(t *testing.T) {
	if _, err := Parse("01x"); !errors.Is(err, ErrBadDigit) {
		t.Fatalf("expected ErrBadDigit, got %v", err)
	}
}

func TestHasPrefix(t *testing.T) {
	s := MustParse("10110")
	cases := []struct {
		prefix string
		want   bool
	}{
		{"", true},
		{"1", true},
		{"101", true},
		{"10110", true},
		{"100", false},
		{"101101", false},
	}
	for _, tc := range cases {
		if got := s.HasPrefix(MustParse(tc.prefix)); got != tc.want {
			t.Errorf("HasPrefix(%q) = %v, want %v", tc.prefix, got, tc.want)
		}
	}
}

func TestAccumulatorMatchesSequenceKey(t *testing.T) {
	s := MustParse("1100101011")
	var acc Accumulator
	for i := 0; i < s.Len(); i++ {
		if err := acc.Push(s.Bit(i)); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}
	k, err := s.Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if acc.Key() != k {
		t.Fatalf("accumulated key differs from sequence key")
	}
	if !acc.Key().Sequence().Equal(s) {
		t.Fatalf("key does not convert back to %s", s)
	}

	acc.Reset()
	if acc.Len() != 0 || acc.Key() != (Key{}) {
		t.Fatalf("reset left %d bits", acc.Len())
	}
}

func TestAccumulatorLimit(t *testing.T) {
	var acc Accumulator
	for i := 0; i < MaxKeyBits; i++ {
		if err := acc.Push(1); err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
	}
	if err := acc.Push(0); !errors.Is(err, ErrKeyTooLong) {
		t.Fatalf("expected ErrKeyTooLong, got %v", err)
	}
}

func TestBuilderAndReader(t *testing.T) {
	parts := []string{"1", "0110", "111111111", "", "0000000", "10"}
	b := NewBuilder(0)
	var want string
	for _, p := range parts {
		if err := b.WriteSequence(MustParse(p)); err != nil {
			t.Fatalf("WriteSequence: %v", err)
		}
		want += p
	}
	if err := b.WriteBit(1); err != nil {
		t.Fatalf("WriteBit: %v", err)
	}
	want += "1"

	s, err := b.Sequence()
	if err != nil {
		t.Fatalf("Sequence: %v", err)
	}
	if s.String() != want {
		t.Fatalf("expected %s, got %s", want, s.String())
	}
	if err := b.WriteBit(0); err == nil {
		t.Fatalf("expected write after Sequence to fail")
	}

	r := NewReader(s)
	var got []byte
	for {
		bit, err := r.ReadBit()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadBit: %v", err)
		}
		got = append(got, '0'+bit)
	}
	if string(got) != want {
		t.Fatalf("reader produced %s, want %s", got, want)
	}
}
