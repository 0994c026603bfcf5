package encryption

import (
	"crypto/aes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/keys"
)

const (
	// SaltSize is the length of the random per-file salt that prefixes every output.
	SaltSize = 16

	// pbkdf2Iterations is deliberately modest: the input is already 256 bits of random key material.
	pbkdf2Iterations = 10_000

	aesKeySize = 32

	sealedKeySize = 64
	sealedInfo    = "chiffre/sealed"
)

// deriveCBC derives the per-file AES-256 key and CBC IV from the backup key and the file salt.
func deriveCBC(key keys.Key, salt []byte) (aesKey, iv []byte) {
	derived := pbkdf2.Key(key.Bytes(), salt, pbkdf2Iterations, aesKeySize+aes.BlockSize, sha256.New)

	return derived[:aesKeySize], derived[aesKeySize:]
}

// deriveSealed derives the per-file AES-SIV key for the sealed format.
func deriveSealed(key keys.Key, salt []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, key.Bytes(), salt, []byte(sealedInfo))
	derived := make([]byte, sealedKeySize)

	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, errs.Wrap(errs.ErrCrypto, fmt.Errorf("deriving sealed key: %w", err))
	}

	return derived, nil
}

// newSalt reads a fresh salt from r.
func newSalt(r io.Reader) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, errs.Wrap(errs.ErrCrypto, fmt.Errorf("generating salt: %w", err))
	}

	return salt, nil
}

// readSalt reads the salt that prefixes a ciphertext.
func readSalt(r io.Reader) ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: reading salt", ErrTruncated)
		}

		return nil, errs.Wrap(errs.ErrIO, fmt.Errorf("reading salt: %w", err))
	}

	return salt, nil
}
