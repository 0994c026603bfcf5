package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/keys"
)

// newCBCBlock derives the per-file cipher and IV for salt.
func newCBCBlock(key keys.Key, salt []byte) (cipher.Block, []byte, error) {
	aesKey, iv := deriveCBC(key, salt)

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, nil, errs.Wrap(errs.ErrCrypto, fmt.Errorf("creating cipher: %w", err))
	}

	return block, iv, nil
}

// encryptCBC writes salt || AES-256-CBC(PKCS#7(r)) to w.
func encryptCBC(r io.Reader, w io.Writer, key keys.Key, random io.Reader) error {
	salt, err := newSalt(random)
	if err != nil {
		return err
	}

	if _, err := w.Write(salt); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("writing salt: %w", err))
	}

	block, iv, err := newCBCBlock(key, salt)
	if err != nil {
		return err
	}

	cbcMode := cipher.NewCBCEncrypter(block, iv)

	bufp := getBuffer()
	defer putBuffer(bufp)

	buf := *bufp

	// Full buffers are block aligned and can be encrypted in place.
	// The short read that ends the stream carries the padding.
	for {
		n, err := io.ReadFull(r, buf)

		switch {
		case err == nil:
			cbcMode.CryptBlocks(buf, buf)

			if _, err := w.Write(buf); err != nil {
				return errs.Wrap(errs.ErrIO, fmt.Errorf("writing encrypted block: %w", err))
			}

			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		default:
			return errs.Wrap(errs.ErrIO, fmt.Errorf("reading input: %w", err))
		}

		padded := padTail(buf[:n])
		cbcMode.CryptBlocks(padded, padded)

		if _, err := w.Write(padded); err != nil {
			return errs.Wrap(errs.ErrIO, fmt.Errorf("writing final encrypted block: %w", err))
		}

		return nil
	}
}

// decryptCBC reverses encryptCBC. The last block is held back until the end of
// the stream so its padding can be checked before it is written.
func decryptCBC(r io.Reader, w io.Writer, key keys.Key) error {
	salt, err := readSalt(r)
	if err != nil {
		return err
	}

	block, iv, err := newCBCBlock(key, salt)
	if err != nil {
		return err
	}

	cbcMode := cipher.NewCBCDecrypter(block, iv)

	bufp := getBuffer()
	defer putBuffer(bufp)

	buf := *bufp

	var held, total int

	for {
		n, err := io.ReadFull(r, buf[held:])
		total += n
		data := buf[:held+n]

		switch {
		case err == nil:
			keep := len(data) - aes.BlockSize
			cbcMode.CryptBlocks(data[:keep], data[:keep])

			if _, err := w.Write(data[:keep]); err != nil {
				return errs.Wrap(errs.ErrIO, fmt.Errorf("writing decrypted block: %w", err))
			}

			held = copy(buf, data[keep:])

			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		default:
			return errs.Wrap(errs.ErrIO, fmt.Errorf("reading input: %w", err))
		}

		if total == 0 {
			return ErrEmptyData
		}

		if len(data)%aes.BlockSize != 0 {
			return ErrInvalidBlockSize
		}

		cbcMode.CryptBlocks(data, data)

		unpadded, err := unpadTail(data)
		if err != nil {
			return fmt.Errorf("removing padding: %w", err)
		}

		if _, err := w.Write(unpadded); err != nil {
			return errs.Wrap(errs.ErrIO, fmt.Errorf("writing final decrypted block: %w", err))
		}

		return nil
	}
}
