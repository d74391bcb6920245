package baseline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"entropack/pkg/opctl"
)

func TestMeasure(t *testing.T) {
	data := bytes.Repeat([]byte("abracadabra, the quick brown fox "), 200)

	got, err := Measure(context.Background(), data)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	want := []string{"Huffman", "Shannon-Fano", "LZ4", "Zstandard"}
	if len(got) != len(want) {
		t.Fatalf("got %d measurements, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.Name != want[i] {
			t.Errorf("measurement %d = %s, want %s", i, m.Name, want[i])
		}
		if m.Size <= 0 || m.Size >= int64(len(data)) {
			t.Errorf("%s: size %d for %d input bytes", m.Name, m.Size, len(data))
		}
		if r := m.Ratio(int64(len(data))); r <= 0 || r >= 1 {
			t.Errorf("%s: ratio %f", m.Name, r)
		}
	}
}

func TestMeasureEmpty(t *testing.T) {
	got, err := Measure(context.Background(), nil)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	for _, m := range got {
		if m.Ratio(0) != 0 {
			t.Errorf("%s: ratio of empty input = %f", m.Name, m.Ratio(0))
		}
	}
}

func TestMeasureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Measure(ctx, bytes.Repeat([]byte("xy"), 1<<14))
	if !errors.Is(err, opctl.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}
