package shannonfano

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"entropack/pkg/bitseq"
	"entropack/pkg/freq"
	"entropack/pkg/opctl"
)

const (
	randSeed   = 0x1bad5eed
	iterations = 20
)

func TestBuildSplits(t *testing.T) {
	cases := []struct {
		name   string
		counts map[byte]int64
		want   Table
	}{
		{
			name:   "skewed three symbols",
			counts: map[byte]int64{0: 3, 1: 2, 2: 1},
			want:   Table{0: "0", 1: "10", 2: "11"},
		},
		{
			name:   "textbook five symbols",
			counts: map[byte]int64{'A': 15, 'B': 7, 'C': 6, 'D': 6, 'E': 5},
			want:   Table{'A': "00", 'B': "01", 'C': "100", 'D': "101", 'E': "11"},
		},
		{
			name:   "two equal symbols",
			counts: map[byte]int64{'x': 4, 'y': 4},
			want:   Table{'x': "0", 'y': "1"},
		},
		{
			name:   "single symbol",
			counts: map[byte]int64{'q': 9},
			want:   Table{'q': "0"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Build(freq.FromCounts(tc.counts))
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d codes, got %d: %v", len(tc.want), len(got), got)
			}
			for sym, code := range tc.want {
				if got[sym] != code {
					t.Errorf("code for %q: got %q, want %q", sym, got[sym], code)
				}
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	if len(Build(freq.Count(nil))) != 0 {
		t.Fatalf("expected no codes for empty input")
	}
}

func randomData(rng *rand.Rand) []byte {
	n := 1 + rng.Intn(4096)
	alphabet := 2 + rng.Intn(255)
	data := make([]byte, n)
	for i := range data {
		r := rng.Float64()
		data[i] = byte(int(r * r * float64(alphabet)))
	}
	return data
}

func TestRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	for i := 0; i < iterations; i++ {
		data := randomData(rng)
		table := Build(freq.Count(data))

		bits, err := Encode(context.Background(), data, table)
		if err != nil {
			t.Fatalf("iteration %d: Encode: %v", i, err)
		}
		out, err := Decode(context.Background(), bits, table, len(data))
		if err != nil {
			t.Fatalf("iteration %d: Decode: %v", i, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("iteration %d: round trip mismatch", i)
		}
	}
}

func TestPrefixFree(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	for i := 0; i < iterations; i++ {
		table := Build(freq.Count(randomData(rng)))
		for a, ca := range table {
			for b, cb := range table {
				if a != b && strings.HasPrefix(cb, ca) {
					t.Fatalf("iteration %d: code %s of %d is a prefix of %s of %d", i, ca, a, cb, b)
				}
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(randSeed))
	for i := 0; i < iterations; i++ {
		f := freq.Count(randomData(rng))
		first, second := Build(f), Build(f)
		for sym, code := range first {
			if second[sym] != code {
				t.Fatalf("iteration %d: code for %d differs: %s vs %s", i, sym, code, second[sym])
			}
		}
	}
}

func TestEncodePacking(t *testing.T) {
	table := Table{0: "0", 1: "10", 2: "11"}
	bits, err := Encode(context.Background(), []byte{0, 0, 0, 1, 1, 2}, table)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if bits.String() != "000101011" {
		t.Fatalf("unexpected bits %s", bits)
	}
	if !bytes.Equal(bits.Bytes(), []byte{0x15, 0x80}) {
		t.Fatalf("unexpected packing %x", bits.Bytes())
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	if _, err := Encode(context.Background(), []byte{7}, Table{1: "0"}); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	table := Table{'a': "0", 'b': "10", 'c': "11"}
	out, err := Decode(context.Background(), bitseq.MustParse("011"), table, 3)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if string(out) != "ac" {
		t.Fatalf("expected partial \"ac\", got %q", out)
	}
}

func TestDecodeCancelled(t *testing.T) {
	data := bytes.Repeat([]byte("ab"), opctl.CheckInterval)
	table := Build(freq.Count(data))
	bits, err := Encode(context.Background(), data, table)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Decode(ctx, bits, table, len(data)); !errors.Is(err, opctl.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}
