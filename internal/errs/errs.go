// Package errs defines the error classes shared by the key, codec and batch layers.
//
// Every error returned by chiffre wraps exactly one of these sentinels, so callers can
// classify failures with errors.Is regardless of how deep the cause is.
package errs

import "errors"

var (
	// ErrPath is returned when a source or destination path is missing or of the wrong type.
	ErrPath = errors.New("path error")
	// ErrKeyNotFound is returned when the key file cannot be read during decryption.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCrypto is returned for malformed keys, bad padding, truncated ciphertext
	// and random source failures.
	ErrCrypto = errors.New("crypto error")
	// ErrIO is returned when reading, writing or deleting a file fails.
	ErrIO = errors.New("i/o error")
)

// classified tags an error with one of the sentinels without changing its message.
type classified struct {
	class error
	err   error
}

func (c *classified) Error() string { return c.err.Error() }

func (c *classified) Unwrap() []error { return []error{c.err, c.class} }

// Wrap tags err with class. The message of err is kept as is.
// A nil err stays nil.
func Wrap(class, err error) error {
	if err == nil {
		return nil
	}

	return &classified{class: class, err: err}
}
