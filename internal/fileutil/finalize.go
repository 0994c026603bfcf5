// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/idelchi/chiffre/internal/errs"
)

// OwnerReadWrite is the mode of every file chiffre creates.
const OwnerReadWrite os.FileMode = 0o600

// tempPattern names in-flight outputs. The leading dot keeps them out of casual listings.
const tempPattern = ".chiffre-tmp-*"

// TempContext holds state for an atomic file write operation.
type TempContext struct {
	TmpFile *os.File
	TmpName string

	outPath string
}

// NewTempContext creates a temp file next to outPath for atomic writing.
// Caller must defer CleanupOnError.
func NewTempContext(outPath string) (*TempContext, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), tempPattern)
	if err != nil {
		return nil, errs.Wrap(errs.ErrIO, fmt.Errorf("creating temporary file for %q: %w", outPath, err))
	}

	return &TempContext{
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		outPath: outPath,
	}, nil
}

// Write implements io.Writer on the temp file.
func (tc *TempContext) Write(p []byte) (int, error) {
	return tc.TmpFile.Write(p)
}

// Commit flushes the temp file to disk, applies perm and renames it onto the output path.
// Once Commit returns nil the output is durable.
func (tc *TempContext) Commit(perm os.FileMode) error {
	if err := tc.TmpFile.Sync(); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("syncing temporary file: %w", err))
	}

	if err := tc.TmpFile.Chmod(perm); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("setting file permissions: %w", err))
	}

	if err := tc.TmpFile.Close(); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("closing temporary file: %w", err))
	}

	if err := os.Rename(tc.TmpName, tc.outPath); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("renaming output file: %w", err))
	}

	syncDir(filepath.Dir(tc.outPath))

	return nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:gosec // best-effort cleanup, may already be closed

	if *errp != nil {
		os.Remove(tc.TmpName) //nolint:gosec // best-effort cleanup
	}
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) (err error) {
	tc, err := NewTempContext(path)
	if err != nil {
		return err
	}

	defer tc.CleanupOnError(&err)

	if _, err = tc.Write(data); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("writing %q: %w", path, err))
	}

	return tc.Commit(perm)
}

// SetTimes applies modTime to the temp file so the committed output carries it from the start.
func (tc *TempContext) SetTimes(modTime time.Time) error {
	if err := os.Chtimes(tc.TmpName, modTime, modTime); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("preserving timestamps: %w", err))
	}

	return nil
}

// IsTemp reports whether name looks like an in-flight output left behind by an interrupted run.
func IsTemp(name string) bool {
	ok, _ := filepath.Match(tempPattern, name)

	return ok
}

// syncDir makes a rename durable. Not every platform supports syncing directories.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // dir is the parent of an output we just wrote
	if err != nil {
		return
	}

	d.Sync()  //nolint:errcheck,gosec // best effort
	d.Close() //nolint:errcheck,gosec // best effort
}
