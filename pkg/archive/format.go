// Package archive reads and writes the multi-file archive format shared by
// the Huffman and Shannon-Fano coders.
//
// Layout, all integers little-endian:
//
//	entryCount:int32
//	entryCount × { relPathLen:int32 relPath origPathLen:int32 origPath fileSize:int32 startOffset:int64 }
//	originalLength:int32
//	originalLength == 0: end
//	originalLength == 1: literal:uint8, end
//	codeCount:int32
//	codeCount × Huffman      { symbol:uint8 bitLen:uint8 packed:[ceil(bitLen/8)] }
//	codeCount × Shannon-Fano { symbol:uint8 codeLen:uint8 chars:[codeLen] }
//	encodedBitCount:int32 encoded:[ceil(encodedBitCount/8)]
package archive

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"entropack/pkg/bitseq"
	"entropack/pkg/freq"
	"entropack/pkg/huffman"
	"entropack/pkg/opctl"
	"entropack/pkg/shannonfano"
)

var (
	// ErrFormat reports an archive whose contents disagree with its declared
	// lengths.
	ErrFormat = errors.New("archive: malformed archive")
	// ErrTooLarge reports input that does not fit the 32-bit length fields.
	ErrTooLarge = errors.New("archive: input too large for archive format")
	// ErrCodeTooLong reports a code longer than the 255 bits a length byte
	// can describe.
	ErrCodeTooLong = errors.New("archive: code too long for archive format")
	// ErrAlgorithm reports an unknown algorithm value.
	ErrAlgorithm = errors.New("archive: unknown algorithm")
)

const maxCodeLen = math.MaxUint8

// Entry describes one archived file.
type Entry struct {
	RelPath  string // relative path used on extraction, '/' separated
	OrigPath string // path at compression time, informational
	Size     int64  // original size in bytes
	Offset   int64  // offset of the file inside the concatenated input
}

// Header is the metadata section of an archive.
type Header struct {
	Entries []Entry
	Length  int // total concatenated input length
}

// Unpacked is a decoded archive.
type Unpacked struct {
	Header
	Data []byte
}

// File returns the contents of entry i.
func (u *Unpacked) File(i int) []byte {
	e := u.Entries[i]
	if e.Size == 0 {
		return nil
	}
	return u.Data[e.Offset : e.Offset+e.Size]
}

type encoder struct {
	buf []byte
}

func (e *encoder) putInt32(v int) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(int32(v)))
}

func (e *encoder) putInt64(v int64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
}

func (e *encoder) putByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *encoder) putBytes(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) putString(s string) {
	e.putInt32(len(s))
	e.buf = append(e.buf, s...)
}

// Pack encodes data with alg and serializes it together with entries.  data
// is the concatenation of every entry's contents in entry order.
func Pack(ctx context.Context, alg Algorithm, entries []Entry, data []byte) ([]byte, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrAlgorithm, alg)
	}
	if len(data) > math.MaxInt32 || len(entries) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d bytes in %d entries", ErrTooLarge, len(data), len(entries))
	}

	var e encoder
	e.putInt32(len(entries))
	for _, entry := range entries {
		if entry.Size > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, entry.RelPath, entry.Size)
		}
		e.putString(entry.RelPath)
		e.putString(entry.OrigPath)
		e.putInt32(int(entry.Size))
		e.putInt64(entry.Offset)
	}

	e.putInt32(len(data))
	switch len(data) {
	case 0:
		return e.buf, nil
	case 1:
		e.putByte(data[0])
		return e.buf, nil
	}

	if err := opctl.Check(ctx); err != nil {
		return nil, err
	}
	counts := freq.Count(data)

	var bits bitseq.Sequence
	var err error
	switch alg {
	case Huffman:
		table := huffman.Build(counts).Codes()
		if table.MaxLen() > maxCodeLen {
			return nil, fmt.Errorf("%w: %d bits", ErrCodeTooLong, table.MaxLen())
		}
		writeHuffmanTable(&e, table)
		bits, err = huffman.Encode(ctx, data, table)
	case ShannonFano:
		table := shannonfano.Build(counts)
		if table.MaxLen() > maxCodeLen {
			return nil, fmt.Errorf("%w: %d bits", ErrCodeTooLong, table.MaxLen())
		}
		writeShannonFanoTable(&e, table)
		bits, err = shannonfano.Encode(ctx, data, table)
	}
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if bits.Len() > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d encoded bits", ErrTooLarge, bits.Len())
	}

	e.putInt32(bits.Len())
	e.putBytes(bits.Bytes())
	return e.buf, nil
}

func sortedSymbols[V any](m map[byte]V) []byte {
	syms := make([]byte, 0, len(m))
	for sym := range m {
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

func writeHuffmanTable(e *encoder, table huffman.Table) {
	e.putInt32(len(table))
	for _, sym := range sortedSymbols(table) {
		code := table[sym]
		e.putByte(sym)
		e.putByte(byte(code.Len()))
		e.putBytes(code.Bytes())
	}
}

func writeShannonFanoTable(e *encoder, table shannonfano.Table) {
	e.putInt32(len(table))
	for _, sym := range sortedSymbols(table) {
		code := table[sym]
		e.putByte(sym)
		e.putByte(byte(len(code)))
		e.putBytes([]byte(code))
	}
}

// formatErr marks a read failure as a malformed archive.
func formatErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: truncated", ErrFormat, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrFormat, what, err)
}

func readInt32(r *bytes.Reader, what string) (int, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, formatErr(what, err)
	}
	return int(v), nil
}

func readLength(r *bytes.Reader, what string) (int, error) {
	n, err := readInt32(r, what)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > r.Len() {
		return 0, fmt.Errorf("%w: %s: length %d with %d bytes left", ErrFormat, what, n, r.Len())
	}
	return n, nil
}

func readString(r *bytes.Reader, what string) (string, error) {
	n, err := readLength(r, what+" length")
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", formatErr(what, err)
	}
	return string(b), nil
}

func readHeader(r *bytes.Reader) (Header, error) {
	var h Header
	count, err := readInt32(r, "entry count")
	if err != nil {
		return h, err
	}
	// Every entry takes at least 20 bytes.
	if count < 0 || count > r.Len()/20 {
		return h, fmt.Errorf("%w: entry count %d", ErrFormat, count)
	}

	h.Entries = make([]Entry, count)
	for i := range h.Entries {
		relPath, err := readString(r, fmt.Sprintf("entry %d path", i))
		if err != nil {
			return h, err
		}
		origPath, err := readString(r, fmt.Sprintf("entry %d original path", i))
		if err != nil {
			return h, err
		}
		size, err := readInt32(r, fmt.Sprintf("entry %d size", i))
		if err != nil {
			return h, err
		}
		var offset int64
		if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
			return h, formatErr(fmt.Sprintf("entry %d offset", i), err)
		}
		if size < 0 || offset < 0 {
			return h, fmt.Errorf("%w: entry %d has size %d at offset %d", ErrFormat, i, size, offset)
		}
		h.Entries[i] = Entry{RelPath: relPath, OrigPath: origPath, Size: int64(size), Offset: offset}
	}

	h.Length, err = readInt32(r, "original length")
	if err != nil {
		return h, err
	}
	if h.Length < 0 {
		return h, fmt.Errorf("%w: original length %d", ErrFormat, h.Length)
	}
	length := int64(h.Length)
	for i, e := range h.Entries {
		if e.Offset > length || e.Size > length-e.Offset {
			return h, fmt.Errorf("%w: entry %d of %d bytes at offset %d exceeds %d bytes", ErrFormat, i, e.Size, e.Offset, length)
		}
	}
	return h, nil
}

// ReadHeader parses only the metadata section of blob.
func ReadHeader(blob []byte) (Header, error) {
	return readHeader(bytes.NewReader(blob))
}

// Unpack parses blob and decodes its payload with alg.
func Unpack(ctx context.Context, alg Algorithm, blob []byte) (*Unpacked, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrAlgorithm, alg)
	}
	r := bytes.NewReader(blob)
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	u := &Unpacked{Header: h}

	switch h.Length {
	case 0:
		return u, nil
	case 1:
		b, err := r.ReadByte()
		if err != nil {
			return nil, formatErr("literal byte", err)
		}
		u.Data = []byte{b}
		return u, nil
	}

	codeCount, err := readInt32(r, "code count")
	if err != nil {
		return nil, err
	}
	if codeCount < 1 || codeCount > 256 {
		return nil, fmt.Errorf("%w: code count %d", ErrFormat, codeCount)
	}

	var decode func(bits bitseq.Sequence) ([]byte, error)
	switch alg {
	case Huffman:
		table, err := readHuffmanTable(r, codeCount)
		if err != nil {
			return nil, err
		}
		decode = func(bits bitseq.Sequence) ([]byte, error) {
			return huffman.Decode(ctx, bits, table, h.Length)
		}
	case ShannonFano:
		table, err := readShannonFanoTable(r, codeCount)
		if err != nil {
			return nil, err
		}
		decode = func(bits bitseq.Sequence) ([]byte, error) {
			return shannonfano.Decode(ctx, bits, table, h.Length)
		}
	}

	bitCount, err := readInt32(r, "encoded bit count")
	if err != nil {
		return nil, err
	}
	if bitCount < 0 || (bitCount+7)/8 > r.Len() {
		return nil, fmt.Errorf("%w: %d encoded bits with %d bytes left", ErrFormat, bitCount, r.Len())
	}
	if h.Length > bitCount {
		return nil, fmt.Errorf("%w: %d bytes cannot come from %d encoded bits", ErrFormat, h.Length, bitCount)
	}
	packed := make([]byte, (bitCount+7)/8)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, formatErr("encoded payload", err)
	}
	bits, err := bitseq.FromBytes(packed, bitCount)
	if err != nil {
		return nil, formatErr("encoded payload", err)
	}

	u.Data, err = decode(bits)
	if err != nil {
		if errors.Is(err, opctl.ErrCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: decode payload: %v", ErrFormat, err)
	}
	return u, nil
}

func readCodeHead(r *bytes.Reader, i int) (sym byte, n int, err error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, 0, formatErr(fmt.Sprintf("code %d", i), err)
	}
	return head[0], int(head[1]), nil
}

func readHuffmanTable(r *bytes.Reader, count int) (huffman.Table, error) {
	table := make(huffman.Table, count)
	for i := 0; i < count; i++ {
		sym, bitLen, err := readCodeHead(r, i)
		if err != nil {
			return nil, err
		}
		packed := make([]byte, (bitLen+7)/8)
		if _, err := io.ReadFull(r, packed); err != nil {
			return nil, formatErr(fmt.Sprintf("code %d bits", i), err)
		}
		code, err := bitseq.FromBytes(packed, bitLen)
		if err != nil {
			return nil, formatErr(fmt.Sprintf("code %d bits", i), err)
		}
		table[sym] = code
	}
	return table, nil
}

func readShannonFanoTable(r *bytes.Reader, count int) (shannonfano.Table, error) {
	table := make(shannonfano.Table, count)
	for i := 0; i < count; i++ {
		sym, codeLen, err := readCodeHead(r, i)
		if err != nil {
			return nil, err
		}
		chars := make([]byte, codeLen)
		if _, err := io.ReadFull(r, chars); err != nil {
			return nil, formatErr(fmt.Sprintf("code %d chars", i), err)
		}
		for _, c := range chars {
			if c != '0' && c != '1' {
				return nil, fmt.Errorf("%w: code %d has character %q", ErrFormat, i, c)
			}
		}
		table[sym] = string(chars)
	}
	return table, nil
}
