// Package envelope wraps an opaque byte blob in password-based encryption.
//
// The sealed form is salt(16) || iv(16) || ciphertext.  The key is derived
// with PBKDF2-HMAC-SHA256 and the blob is encrypted with AES-256 in CBC mode
// with PKCS#7 padding.  There is no authentication tag: a wrong password is
// detected only through invalid padding.
package envelope

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize   = 16
	IVSize     = aes.BlockSize
	KeySize    = 32
	Iterations = 100000
	// Overhead is the fixed prefix added in front of the ciphertext.
	Overhead = SaltSize + IVSize
)

var (
	// ErrDecryption reports a wrong password or a corrupted blob.
	ErrDecryption = errors.New("envelope: decryption failed")
	// ErrEmptyPassword reports an attempt to seal with an empty password.
	ErrEmptyPassword = errors.New("envelope: empty password")
)

// Random is the source of salts and IVs.  Tests may replace it.
var Random io.Reader = rand.Reader

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// Encrypt seals data under password.
func Encrypt(data []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	out := make([]byte, Overhead, Overhead+len(data)+aes.BlockSize)
	if _, err := io.ReadFull(Random, out[:Overhead]); err != nil {
		return nil, fmt.Errorf("read salt and iv: %w", err)
	}
	salt, iv := out[:SaltSize], out[SaltSize:Overhead]

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plain := pad(data)
	ct := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, plain)
	return append(out, ct...), nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < Overhead+aes.BlockSize {
		return nil, fmt.Errorf("%w: blob of %d bytes is too short", ErrDecryption, len(sealed))
	}
	salt, iv, ct := sealed[:SaltSize], sealed[SaltSize:Overhead], sealed[Overhead:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecryption)
	}

	block, err := aes.NewCipher(deriveKey(password, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)
	return unpad(plain)
}

// ValidatePassword reports whether password opens sealed.
func ValidatePassword(sealed []byte, password string) bool {
	_, err := Decrypt(sealed, password)
	return err == nil
}

// IsEncrypted guesses whether the file at path is sealed.  A plaintext
// archive begins with a non-negative little-endian entry count, so the high
// bit of byte 3 is reserved and always clear.  A set bit therefore means the
// file is sealed; a clear bit proves nothing, so false negatives are
// expected.  Treat the answer as advisory.
func IsEncrypted(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var head [4]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		return false
	}
	return head[3]&0x80 != 0
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryption)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryption)
		}
	}
	return data[:len(data)-n], nil
}
