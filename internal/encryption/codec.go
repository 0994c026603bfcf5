package encryption

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/fileutil"
	"github.com/idelchi/chiffre/internal/keys"
)

// Codec encrypts and decrypts streams and files with a backup key.
type Codec struct {
	// Mode is the format written by Encrypt. Decrypt is told the format explicitly.
	Mode CipherMode

	// Rand is the source of per-file salts.
	Rand io.Reader

	// PreserveTimestamps copies the input modification time onto the output.
	PreserveTimestamps bool
}

// NewCodec returns a Codec for mode backed by crypto/rand.
func NewCodec(mode CipherMode) *Codec {
	return &Codec{
		Mode: mode,
		Rand: rand.Reader,
	}
}

// Encrypt writes the encryption of r under key to w in the codec's mode.
func (c *Codec) Encrypt(r io.Reader, w io.Writer, key keys.Key) error {
	switch c.Mode {
	case ModeCBC:
		return encryptCBC(r, w, key, c.random())
	case ModeSealed:
		return encryptSealed(r, w, key, c.random())
	default:
		return errs.Wrap(errs.ErrCrypto, fmt.Errorf("unknown cipher mode %v", c.Mode))
	}
}

// Decrypt writes the decryption of r under key to w. Plaintext may already have been
// written to w when an error is returned.
func (c *Codec) Decrypt(r io.Reader, w io.Writer, key keys.Key) error {
	switch c.Mode {
	case ModeCBC:
		return decryptCBC(r, w, key)
	case ModeSealed:
		return decryptSealed(r, w, key)
	default:
		return errs.Wrap(errs.ErrCrypto, fmt.Errorf("unknown cipher mode %v", c.Mode))
	}
}

// EncryptFile encrypts src into dst atomically and returns the size of dst.
// On failure dst is left untouched.
func (c *Codec) EncryptFile(src, dst string, key keys.Key) (int64, error) {
	return c.processFile(src, dst, func(r io.Reader, w io.Writer) error {
		return c.Encrypt(r, w, key)
	})
}

// DecryptFile decrypts src into dst atomically and returns the size of dst.
// On failure dst is left untouched; a partially decrypted output is never visible.
func (c *Codec) DecryptFile(src, dst string, key keys.Key) (int64, error) {
	return c.processFile(src, dst, func(r io.Reader, w io.Writer) error {
		return c.Decrypt(r, w, key)
	})
}

func (c *Codec) random() io.Reader {
	if c.Rand == nil {
		return rand.Reader
	}

	return c.Rand
}

// processFile streams src through transform into a temp file next to dst and renames it into place.
func (c *Codec) processFile(src, dst string, transform func(io.Reader, io.Writer) error) (size int64, err error) {
	inFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return 0, errs.Wrap(errs.ErrIO, fmt.Errorf("opening input file: %w", err))
	}
	defer inFile.Close()

	info, err := inFile.Stat()
	if err != nil {
		return 0, errs.Wrap(errs.ErrIO, fmt.Errorf("reading input file info: %w", err))
	}

	if !info.Mode().IsRegular() {
		return 0, errs.Wrap(errs.ErrPath, fmt.Errorf("%q is not a regular file", src))
	}

	tc, err := fileutil.NewTempContext(dst)
	if err != nil {
		return 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	counter := &countingWriter{w: tc}
	bufWriter := bufio.NewWriterSize(counter, defaultBufferSize)

	if err = transform(bufio.NewReaderSize(inFile, defaultBufferSize), bufWriter); err != nil {
		return 0, err
	}

	if err = bufWriter.Flush(); err != nil {
		return 0, errs.Wrap(errs.ErrIO, fmt.Errorf("writing output: %w", err))
	}

	if c.PreserveTimestamps {
		if err = tc.SetTimes(info.ModTime()); err != nil {
			return 0, err
		}
	}

	if err = tc.Commit(fileutil.OwnerReadWrite); err != nil {
		return 0, err
	}

	return counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)

	return n, err
}
