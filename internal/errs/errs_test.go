package errs_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/idelchi/chiffre/internal/errs"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("opening %q: %w", "a.txt", fs.ErrPermission)
	err := errs.Wrap(errs.ErrIO, cause)

	if err.Error() != cause.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), cause.Error())
	}

	if !errors.Is(err, errs.ErrIO) {
		t.Error("wrapped error does not match ErrIO")
	}

	if !errors.Is(err, fs.ErrPermission) {
		t.Error("wrapped error lost its cause")
	}

	if errors.Is(err, errs.ErrCrypto) {
		t.Error("wrapped error unexpectedly matches ErrCrypto")
	}

	outer := fmt.Errorf("encrypting: %w", err)
	if !errors.Is(outer, errs.ErrIO) {
		t.Error("class lost after further wrapping")
	}
}

func TestWrapNil(t *testing.T) {
	t.Parallel()

	if err := errs.Wrap(errs.ErrIO, nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}
