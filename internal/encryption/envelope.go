package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/idelchi/chiffre/internal/errs"
)

const (
	envelopeMagic   = "CHFS"
	envelopeVersion = byte(1)
)

const envelopeHeaderSize = len(envelopeMagic) + 1

func newEnvelopeHeader() []byte {
	header := make([]byte, envelopeHeaderSize)
	copy(header, envelopeMagic)

	header[len(envelopeMagic)] = envelopeVersion

	return header
}

func parseEnvelopeHeader(header []byte) error {
	if len(header) != envelopeHeaderSize {
		return fmt.Errorf("%w: envelope header too short", ErrProcessing)
	}

	if !bytes.Equal(header[:len(envelopeMagic)], []byte(envelopeMagic)) {
		return fmt.Errorf("%w: invalid envelope magic", ErrProcessing)
	}

	if version := header[len(envelopeMagic)]; version != envelopeVersion {
		return fmt.Errorf("%w: unsupported envelope version %d", ErrProcessing, version)
	}

	return nil
}

// readEnvelopeHeader reads and validates the sealed header and returns it.
func readEnvelopeHeader(r io.Reader) ([]byte, error) {
	header := make([]byte, envelopeHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: reading header", ErrTruncated)
		}

		return nil, errs.Wrap(errs.ErrIO, fmt.Errorf("reading header: %w", err))
	}

	if err := parseEnvelopeHeader(header); err != nil {
		return nil, err
	}

	return header, nil
}
