package encryption

import (
	"errors"

	"github.com/idelchi/chiffre/internal/errs"
)

var (
	// ErrEmptyData is returned when a ciphertext holds a salt but no blocks.
	ErrEmptyData = errs.Wrap(errs.ErrCrypto, errors.New("empty data"))
	// ErrInvalidPadding is returned when PKCS7 padding is malformed, usually because of a wrong key.
	ErrInvalidPadding = errs.Wrap(errs.ErrCrypto, errors.New("invalid padding"))
	// ErrInvalidBlockSize is returned when encrypted data length is not aligned with AES block size.
	ErrInvalidBlockSize = errs.Wrap(errs.ErrCrypto, errors.New("ciphertext is not a multiple of block size"))
	// ErrTruncated is returned when the input ends before the salt or header is complete.
	ErrTruncated = errs.Wrap(errs.ErrCrypto, errors.New("truncated ciphertext"))
	// ErrProcessing indicates a sealed envelope that is malformed or fails authentication.
	ErrProcessing = errs.Wrap(errs.ErrCrypto, errors.New("envelope processing error"))
)
