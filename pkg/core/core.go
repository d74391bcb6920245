// Package core runs compression and decompression operations for files and
// folders: it reads inputs, drives the archive codec and the encryption
// envelope, writes outputs, and honours cancellation and pause between
// steps.
package core

import (
	"errors"
	"fmt"

	"github.com/op/go-logging"

	"entropack/pkg/archive"
	"entropack/pkg/envelope"
	"entropack/pkg/opctl"
	"entropack/pkg/progress"
)

var log = logging.MustGetLogger("entropack/core")

var (
	// ErrInvalidInput reports missing inputs, missing files or folders and
	// unknown algorithms.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIO reports an underlying read or write failure.
	ErrIO = errors.New("i/o failure")
	// ErrPasswordRequired reports an encrypted archive opened without a
	// password.
	ErrPasswordRequired = errors.New("password required")
	// ErrCancelled reports that the operation stopped at a checkpoint after
	// cancellation.  It is a neutral outcome.
	ErrCancelled = opctl.ErrCancelled
	// ErrDecryption reports a wrong password or corrupted ciphertext.
	ErrDecryption = envelope.ErrDecryption
	// ErrFormat reports a malformed archive.
	ErrFormat = archive.ErrFormat
)

// PasswordPrompt asks for a password for archivePath.  attempt starts at 1.
// Returning false gives up on the file.
type PasswordPrompt func(archivePath string, attempt int) (password string, ok bool)

// maxPasswordAttempts bounds re-entry after a failed decryption.
const maxPasswordAttempts = 3

// Options configures one operation.  The zero value compresses with Huffman
// without encryption.
type Options struct {
	Algorithm archive.Algorithm // zero means Huffman for compression, auto-detect for decompression
	Password  string            // empty disables encryption
	Output    string            // archive path, archive directory or extraction directory; empty picks a default
	Gate      *opctl.Gate       // pause signal, may be nil
	Progress  *progress.Tracker // may be nil
	Prompt    PasswordPrompt    // consulted on folder decryption failures, may be nil

	// OnResult is called after each file of a folder compression.
	OnResult func(CompressionResult)
}

func (o Options) compressAlgorithm() (archive.Algorithm, error) {
	if o.Algorithm == 0 {
		return archive.Huffman, nil
	}
	if !o.Algorithm.Valid() {
		return 0, fmt.Errorf("%w: algorithm %d", ErrInvalidInput, o.Algorithm)
	}
	return o.Algorithm, nil
}

func (o Options) decompressAlgorithm(path string) (archive.Algorithm, error) {
	if o.Algorithm != 0 {
		return o.compressAlgorithm()
	}
	if alg, ok := archive.DetectAlgorithm(path); ok {
		return alg, nil
	}
	return 0, fmt.Errorf("%w: cannot tell the algorithm of %s from its name", ErrInvalidInput, path)
}

func ioErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
