package bitseq

// Key is the map-key form of a Sequence of at most MaxKeyBits bits.  Padding
// bits are always zero, so Go equality on Key matches Sequence.Equal.
type Key struct {
	n      uint16
	packed [(MaxKeyBits + 7) / 8]byte
}

// Len returns the number of bits in the key.
func (k Key) Len() int {
	return int(k.n)
}

// Sequence converts the key back to a Sequence.
func (k Key) Sequence() Sequence {
	s := Sequence{packed: make([]byte, (int(k.n)+7)/8), n: int(k.n)}
	copy(s.packed, k.packed[:])
	return s
}

// Accumulator grows a Key one bit at a time without allocating.  The zero
// value is an empty accumulator.
type Accumulator struct {
	key Key
}

// Push appends one bit.  It fails once MaxKeyBits bits are held.
func (a *Accumulator) Push(bit byte) error {
	if a.key.n >= MaxKeyBits {
		return ErrKeyTooLong
	}
	if bit != 0 {
		a.key.packed[a.key.n/8] |= 0x80 >> (a.key.n % 8)
	}
	a.key.n++
	return nil
}

// Key returns the bits pushed since the last Reset.
func (a *Accumulator) Key() Key {
	return a.key
}

// Len returns the number of bits pushed since the last Reset.
func (a *Accumulator) Len() int {
	return int(a.key.n)
}

// Reset empties the accumulator.
func (a *Accumulator) Reset() {
	a.key = Key{}
}
