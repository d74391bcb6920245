// Package bitseq implements immutable packed bit sequences.
//
// Within each byte, bits are addressed most significant first.  The unused
// low-order bits of the last byte are always zero and are never part of the
// logical value: two sequences are equal when they have the same bit length
// and the same bits up to that length.
package bitseq

import (
	"errors"
	"fmt"
	"strings"
)

// MaxKeyBits is the longest sequence that can be turned into a Key.  It
// matches the widest code length the archive format can record.
const MaxKeyBits = 255

var (
	ErrBadLength  = errors.New("bitseq: packed buffer too short for bit length")
	ErrBadDigit   = errors.New("bitseq: digit is neither '0' nor '1'")
	ErrKeyTooLong = errors.New("bitseq: sequence too long for a key")
)

// Sequence is an immutable bit string.
//
// Invariants:
//   - len(packed) == (n+7)/8
//   - if n%8 != 0, the low (8 - n%8) bits of packed[n/8] are zero
type Sequence struct {
	packed []byte
	n      int
}

// FromBytes builds a Sequence of n bits from a packed buffer.  Padding bits
// past n are cleared in the copy; the caller's buffer is not modified.
func FromBytes(packed []byte, n int) (Sequence, error) {
	size := (n + 7) / 8
	if n < 0 || len(packed) < size {
		return Sequence{}, fmt.Errorf("%w: %d bits from %d bytes", ErrBadLength, n, len(packed))
	}
	s := Sequence{packed: make([]byte, size), n: n}
	copy(s.packed, packed[:size])
	s.packed = maskTail(s.packed, n)
	return s, nil
}

// Parse reads a string of '0' and '1' characters.
func Parse(digits string) (Sequence, error) {
	s := Sequence{packed: make([]byte, (len(digits)+7)/8), n: len(digits)}
	for i := 0; i < len(digits); i++ {
		switch digits[i] {
		case '0':
		case '1':
			s.packed[i/8] |= 0x80 >> uint(i%8)
		default:
			return Sequence{}, fmt.Errorf("%w: %q at %d", ErrBadDigit, digits[i], i)
		}
	}
	return s, nil
}

// MustParse is like Parse but panics on malformed input.  Intended for
// tests and constant tables.
func MustParse(digits string) Sequence {
	s, err := Parse(digits)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the logical length in bits.
func (s Sequence) Len() int {
	return s.n
}

// Bytes returns a copy of the packed representation, (Len()+7)/8 bytes long.
func (s Sequence) Bytes() []byte {
	out := make([]byte, len(s.packed))
	copy(out, s.packed)
	return out
}

// Bit returns the bit at index i as 0 or 1.
func (s Sequence) Bit(i int) byte {
	if i < 0 || i >= s.n {
		panic("bitseq: bit index out of range")
	}
	return (s.packed[i/8] >> uint(7-i%8)) & 1
}

// Append returns a new sequence one bit longer.  s is left unchanged.
func (s Sequence) Append(bit byte) Sequence {
	out := Sequence{packed: make([]byte, (s.n+8)/8), n: s.n + 1}
	copy(out.packed, s.packed)
	if bit != 0 {
		out.packed[s.n/8] |= 0x80 >> uint(s.n%8)
	}
	return out
}

// Equal reports whether s and o hold the same bits, ignoring padding.
func (s Sequence) Equal(o Sequence) bool {
	if s.n != o.n {
		return false
	}
	full := s.n / 8
	for i := 0; i < full; i++ {
		if s.packed[i] != o.packed[i] {
			return false
		}
	}
	if r := s.n % 8; r != 0 {
		mask := byte(0xff) << uint(8-r)
		return s.packed[full]&mask == o.packed[full]&mask
	}
	return true
}

// HasPrefix reports whether p is a prefix of s.
func (s Sequence) HasPrefix(p Sequence) bool {
	if p.n > s.n {
		return false
	}
	for i := 0; i < p.n; i++ {
		if s.Bit(i) != p.Bit(i) {
			return false
		}
	}
	return true
}

// Key returns a comparable value usable as a map key.  Sequences longer than
// MaxKeyBits have no key.
func (s Sequence) Key() (Key, error) {
	if s.n > MaxKeyBits {
		return Key{}, fmt.Errorf("%w: %d bits", ErrKeyTooLong, s.n)
	}
	var k Key
	k.n = uint16(s.n)
	copy(k.packed[:], s.packed)
	return k, nil
}

func (s Sequence) String() string {
	var sb strings.Builder
	sb.Grow(s.n)
	for i := 0; i < s.n; i++ {
		sb.WriteByte('0' + s.Bit(i))
	}
	return sb.String()
}

func maskTail(packed []byte, n int) []byte {
	if r := n % 8; r != 0 {
		packed[n/8] &= byte(0xff) << uint(8-r)
	}
	return packed
}
