// Package keys resolves the symmetric key used for a backup: it generates fresh key material or
// accepts a caller-supplied key, and persists or loads it as a one-line key file.
//
// The key file is stored in clear text. Its confidentiality relies entirely on filesystem
// permissions (0600).
package keys

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/idelchi/chiffre/internal/errs"
)

const (
	// Size is the key length in bytes (AES-256).
	Size = 32
	// DefaultFileName is the name of a key file colocated with a backup.
	DefaultFileName = "cle.key"
)

// ErrMalformed is returned when a text-encoded key cannot be decoded to Size bytes.
var ErrMalformed = errors.New("malformed key")

// Key is a 256-bit symmetric key. It is a value type: copies never alias.
type Key [Size]byte

// Generate reads Size bytes from r. Pass nil to use crypto/rand.
func Generate(r io.Reader) (Key, error) {
	if r == nil {
		r = rand.Reader
	}

	var k Key
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return Key{}, errs.Wrap(errs.ErrCrypto, fmt.Errorf("generating key: %w", err))
	}

	return k, nil
}

// Parse decodes a key in any base64 flavour (standard or URL alphabet, padded or raw).
// Surrounding whitespace, including a trailing newline, is ignored.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}

	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err != nil || len(raw) != Size {
			continue
		}

		var k Key

		copy(k[:], raw)

		return k, nil
	}

	return Key{}, errs.Wrap(errs.ErrCrypto,
		fmt.Errorf("%w: want %d base64-encoded bytes", ErrMalformed, Size))
}

// Encode returns the on-disk representation: standard base64, no newline.
func (k Key) Encode() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

// Bytes returns a copy of the raw key material.
func (k Key) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, k[:])

	return b
}

// String redacts the key so it never ends up in logs by accident.
func (k Key) String() string {
	return "<redacted>"
}

// GoString redacts the key for %#v.
func (k Key) GoString() string {
	return k.String()
}
