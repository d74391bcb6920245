package shannonfano

import (
	"context"
	"fmt"
	"io"

	"entropack/pkg/bitseq"
	"entropack/pkg/opctl"
)

// Encode concatenates the code of every byte of data in order, packed
// MSB-first.
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
		for j := 0; j < len(code); j++ {
			if err := b.WriteBit(code[j] - '0'); err != nil {
				return bitseq.Sequence{}, fmt.Errorf("write code for 0x%02x: %w", sym, err)
			}
		}
	}
	return b.Sequence()
}

// Decode reads bits one at a time, accumulating them as '0'/'1' characters,
// and emits a symbol whenever the accumulated string equals a code.  It
// stops after count symbols or when bits run out, returning ErrTruncated in
// the latter case along with the partial output.
func Decode(ctx context.Context, bits bitseq.Sequence, table Table, count int) ([]byte, error) {
	lookup := make(map[string]byte, len(table))
	for sym, code := range table {
		if code != "" {
			lookup[code] = sym
		}
	}

	// Every symbol costs at least one bit.
	out := make([]byte, 0, max(0, min(count, bits.Len())))
	r := bitseq.NewReader(bits)
	acc := make([]byte, 0, 32)
	for len(out) < count {
		bit, err := r.ReadBit()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read bit: %w", err)
		}
		if len(acc) == MaxCodeLen {
			return out, fmt.Errorf("%w: after %d symbols", ErrInvalidCode, len(out))
		}
		acc = append(acc, '0'+bit)
		sym, ok := lookup[string(acc)]
		if !ok {
			continue
		}
		out = append(out, sym)
		acc = acc[:0]
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
