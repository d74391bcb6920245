package bitseq

import (
	"bytes"
	"errors"
	"io"

	"github.com/icza/bitio"
)

var errBuilderDone = errors.New("bitseq: builder already finished")

// Builder assembles a long Sequence by streaming bits MSB-first into a
// buffer.  A Builder is single use: after Sequence is called it rejects
// further writes.
type Builder struct {
	buf  bytes.Buffer
	w    *bitio.Writer
	n    int
	done bool
}

// NewBuilder returns an empty Builder.  sizeHint is the expected number of
// bits and only affects preallocation.
func NewBuilder(sizeHint int) *Builder {
	b := &Builder{}
	if sizeHint > 0 {
		b.buf.Grow((sizeHint + 7) / 8)
	}
	b.w = bitio.NewWriter(&b.buf)
	return b
}

// WriteBit appends a single bit.
func (b *Builder) WriteBit(bit byte) error {
	if b.done {
		return errBuilderDone
	}
	if err := b.w.WriteBool(bit != 0); err != nil {
		return err
	}
	b.n++
	return nil
}

// WriteSequence appends every bit of s.
func (b *Builder) WriteSequence(s Sequence) error {
	if b.done {
		return errBuilderDone
	}
	full := s.n / 8
	for i := 0; i < full; i++ {
		if err := b.w.WriteByte(s.packed[i]); err != nil {
			return err
		}
	}
	if r := s.n % 8; r != 0 {
		if err := b.w.WriteBits(uint64(s.packed[full]>>uint(8-r)), uint8(r)); err != nil {
			return err
		}
	}
	b.n += s.n
	return nil
}

// Len returns the number of bits written so far.
func (b *Builder) Len() int {
	return b.n
}

// Sequence zero-fills the last partial byte and returns the result.
func (b *Builder) Sequence() (Sequence, error) {
	if b.done {
		return Sequence{}, errBuilderDone
	}
	if _, err := b.w.Align(); err != nil {
		return Sequence{}, err
	}
	b.done = true
	return Sequence{packed: b.buf.Bytes(), n: b.n}, nil
}

// Reader yields the bits of a Sequence in order.
type Reader struct {
	r    *bitio.Reader
	left int
}

// NewReader returns a Reader over s.
func NewReader(s Sequence) *Reader {
	return &Reader{r: bitio.NewReader(bytes.NewReader(s.packed)), left: s.n}
}

// ReadBit returns the next bit, or io.EOF once Len() bits were read.
func (r *Reader) ReadBit() (byte, error) {
	if r.left == 0 {
		return 0, io.EOF
	}
	bit, err := r.r.ReadBool()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	r.left--
	if bit {
		return 1, nil
	}
	return 0, nil
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return r.left
}
