package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// fixedRandom makes salts and IVs reproducible within a test.
func fixedRandom(t *testing.T, seed int64) {
	t.Helper()
	prev := Random
	Random = rand.New(rand.NewSource(seed))
	t.Cleanup(func() { Random = prev })
}

func TestRoundTrip(t *testing.T) {
	fixedRandom(t, 1)
	for _, size := range []int{1, 15, 16, 17, 1000} {
		data := bytes.Repeat([]byte{0xab, 0x01}, size)[:size]
		sealed, err := Encrypt(data, "correct horse")
		if err != nil {
			t.Fatalf("size %d: Encrypt: %v", size, err)
		}
		if len(sealed) < Overhead+len(data) || (len(sealed)-Overhead)%16 != 0 {
			t.Fatalf("size %d: unexpected sealed length %d", size, len(sealed))
		}
		if bytes.Contains(sealed, data) && size > 16 {
			t.Fatalf("size %d: plaintext visible in sealed blob", size)
		}
		plain, err := Decrypt(sealed, "correct horse")
		if err != nil {
			t.Fatalf("size %d: Decrypt: %v", size, err)
		}
		if !bytes.Equal(plain, data) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
		if !ValidatePassword(sealed, "correct horse") {
			t.Fatalf("size %d: ValidatePassword rejected the right password", size)
		}
	}
}

func TestFreshSaltPerCall(t *testing.T) {
	a, err := Encrypt([]byte("same"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt([]byte("same"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(a[:Overhead], b[:Overhead]) {
		t.Fatalf("salt and iv reused")
	}
}

func TestWrongPassword(t *testing.T) {
	fixedRandom(t, 7)
	data := []byte("the archive bytes go here, more than one block long")
	sealed, err := Encrypt(data, "right")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// Padding is the only check, so roughly 1 in 256 wrong keys slips
	// through with garbage output.  Never the original data, though.
	rejected := 0
	for i := 0; i < 8; i++ {
		plain, err := Decrypt(sealed, fmt.Sprintf("wrong-%d", i))
		switch {
		case errors.Is(err, ErrDecryption):
			rejected++
		case err != nil:
			t.Fatalf("unexpected error type: %v", err)
		case bytes.Equal(plain, data):
			t.Fatalf("wrong password produced the original data")
		}
	}
	if rejected < 6 {
		t.Fatalf("only %d of 8 wrong passwords rejected", rejected)
	}
}

func TestCorrupted(t *testing.T) {
	fixedRandom(t, 3)
	sealed, err := Encrypt([]byte("payload"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	cases := map[string][]byte{
		"empty":         nil,
		"header only":   sealed[:Overhead],
		"partial block": sealed[:len(sealed)-3],
	}
	for name, blob := range cases {
		if _, err := Decrypt(blob, "pw"); !errors.Is(err, ErrDecryption) {
			t.Errorf("%s: expected ErrDecryption, got %v", name, err)
		}
		if ValidatePassword(blob, "pw") {
			t.Errorf("%s: ValidatePassword accepted a corrupted blob", name)
		}
	}
}

func TestEmptyPassword(t *testing.T) {
	if _, err := Encrypt([]byte("x"), ""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, content []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, content, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return p
	}

	plain := write("plain.huff", []byte{2, 0, 0, 0, 1, 0, 0, 0})
	flagged := write("sealed.huff", []byte{0x11, 0x22, 0x33, 0x80, 0x00})
	short := write("short.huff", []byte{1, 2})

	if IsEncrypted(plain) {
		t.Errorf("plain archive reported encrypted")
	}
	if !IsEncrypted(flagged) {
		t.Errorf("reserved bit set but not reported encrypted")
	}
	if IsEncrypted(short) {
		t.Errorf("short file reported encrypted")
	}
	if IsEncrypted(filepath.Join(dir, "missing")) {
		t.Errorf("missing file reported encrypted")
	}
}
