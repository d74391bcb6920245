package huffman

import (
	"context"
	"fmt"
	"io"

	"entropack/pkg/bitseq"
	"entropack/pkg/opctl"
)

// Table maps each symbol to its code.
type Table map[byte]bitseq.Sequence

// MaxLen returns the length of the longest code.
func (t Table) MaxLen() int {
	longest := 0
	for _, code := range t {
		if code.Len() > longest {
			longest = code.Len()
		}
	}
	return longest
}

// EncodedLen returns the number of bits Encode would produce for a buffer
// with frequencies f.
func (t Table) EncodedLen(f func(byte) int64) int64 {
	var total int64
	for sym, code := range t {
		total += f(sym) * int64(code.Len())
	}
	return total
}

// Encode concatenates the code of every byte of data in order.
func Encode(ctx context.Context, data []byte, table Table) (bitseq.Sequence, error) {
	b := bitseq.NewBuilder(len(data) * 2)
	for i, sym := range data {
		if i%opctl.CheckInterval == 0 {
			if err := opctl.Check(ctx); err != nil {
				return bitseq.Sequence{}, err
			}
		}
		code, ok := table[sym]
		if !ok {
			return bitseq.Sequence{}, fmt.Errorf("%w: 0x%02x", ErrUnknownSymbol, sym)
		}
		if err := b.WriteSequence(code); err != nil {
			return bitseq.Sequence{}, fmt.Errorf("write code for 0x%02x: %w", sym, err)
		}
	}
	return b.Sequence()
}

// Decode reads bits one at a time and emits a symbol whenever the bits read
// since the last symbol equal a code in table.  It stops after count symbols
// or when bits run out; in the latter case the partial output is returned
// together with ErrTruncated.  table must be prefix-free.
func Decode(ctx context.Context, bits bitseq.Sequence, table Table, count int) ([]byte, error) {
	lookup := make(map[bitseq.Key]byte, len(table))
	for sym, code := range table {
		if code.Len() == 0 {
			continue
		}
		k, err := code.Key()
		if err != nil {
			return nil, fmt.Errorf("code for 0x%02x: %w", sym, err)
		}
		lookup[k] = sym
	}

	// Every symbol costs at least one bit.
	out := make([]byte, 0, max(0, min(count, bits.Len())))
	r := bitseq.NewReader(bits)
	var acc bitseq.Accumulator
	for len(out) < count {
		bit, err := r.ReadBit()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read bit: %w", err)
		}
		if err := acc.Push(bit); err != nil {
			return out, fmt.Errorf("%w: after %d symbols", ErrInvalidCode, len(out))
		}
		sym, ok := lookup[acc.Key()]
		if !ok {
			continue
		}
		out = append(out, sym)
		acc.Reset()
		if len(out)%opctl.CheckInterval == 0 {
			if err := opctl.Check(ctx); err != nil {
				return out, err
			}
		}
	}

	if len(out) < count {
		return out, fmt.Errorf("%w: got %d of %d", ErrTruncated, len(out), count)
	}
	return out, nil
}
