package keys

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/fileutil"
)

// Provider generates, persists and loads keys.
type Provider struct {
	// Rand is the random source for key generation.
	Rand io.Reader

	// FileName is the key file name used when no explicit path is given.
	FileName string
}

// Resolved is the outcome of Provider.Resolve.
type Resolved struct {
	Key Key

	// Persisted is true when the key was generated and written to Path.
	Persisted bool

	// Replaced is true when Path already held a key file that was overwritten.
	Replaced bool

	// Path is the key file location; empty for a supplied key.
	Path string
}

// NewProvider returns a Provider backed by crypto/rand and DefaultFileName.
func NewProvider() *Provider {
	return &Provider{
		Rand:     rand.Reader,
		FileName: DefaultFileName,
	}
}

// DefaultPath returns the key file colocated with anchor: same parent directory, fixed name.
func (p *Provider) DefaultPath(anchor string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(anchor)), p.FileName)
}

// Resolve returns the key for an encryption run.
//
// A non-empty supplied key is decoded and used verbatim; no key file is written.
// Otherwise a fresh key is generated and written to keyPath, or to DefaultPath(anchor)
// when keyPath is empty.
func (p *Provider) Resolve(anchor, keyPath, supplied string) (Resolved, error) {
	if supplied != "" {
		k, err := Parse(supplied)
		if err != nil {
			return Resolved{}, fmt.Errorf("parsing supplied key: %w", err)
		}

		return Resolved{Key: k}, nil
	}

	k, err := Generate(p.Rand)
	if err != nil {
		return Resolved{}, err
	}

	path := keyPath
	if path == "" {
		path = p.DefaultPath(anchor)
	}

	_, statErr := os.Stat(path)
	replaced := statErr == nil

	if err := WriteFile(path, k); err != nil {
		return Resolved{}, err
	}

	return Resolved{Key: k, Persisted: true, Replaced: replaced, Path: path}, nil
}

// Load returns the key for a decryption run and the path it was read from.
//
// A non-empty supplied key wins. Otherwise the key is read from keyPath, or from
// DefaultPath(backupPath) when keyPath is empty.
func (p *Provider) Load(backupPath, keyPath, supplied string) (Key, string, error) {
	if supplied != "" {
		k, err := Parse(supplied)
		if err != nil {
			return Key{}, "", fmt.Errorf("parsing supplied key: %w", err)
		}

		return k, "", nil
	}

	path := keyPath
	if path == "" {
		path = p.DefaultPath(backupPath)
	}

	k, err := ReadFile(path)
	if err != nil {
		return Key{}, path, err
	}

	return k, path, nil
}

// WriteFile atomically writes k to path as a single base64 line with mode 0600.
// The parent directory must exist.
func WriteFile(path string, k Key) error {
	if err := fileutil.WriteFile(path, []byte(k.Encode()+"\n"), fileutil.OwnerReadWrite); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}

	return nil
}

// ReadFile reads a key file written by WriteFile.
func ReadFile(path string) (Key, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-supplied by design
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Key{}, errs.Wrap(errs.ErrKeyNotFound, fmt.Errorf("key file %q does not exist", path))
		}

		return Key{}, errs.Wrap(errs.ErrKeyNotFound, fmt.Errorf("reading key file: %w", err))
	}

	k, err := Parse(string(data))
	if err != nil {
		return Key{}, fmt.Errorf("key file %q: %w", path, err)
	}

	return k, nil
}
