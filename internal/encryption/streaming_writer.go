package encryption

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/tink"

	"github.com/idelchi/chiffre/internal/errs"
)

// chunkSize is the plaintext size of every sealed chunk except the last.
const chunkSize = 64 * 1024

// streamingWriter encrypts data in fixed-size chunks using a deterministic AEAD.
// Close must be called to emit the final chunk; it is emitted even for empty input.
type streamingWriter struct {
	w          io.Writer
	daead      tink.DeterministicAEAD
	buffer     []byte
	prefix     []byte
	chunkIndex uint64
	closed     bool
}

// newStreamingWriter creates a writer whose chunk associated data starts with prefix.
func newStreamingWriter(w io.Writer, daead tink.DeterministicAEAD, prefix []byte) *streamingWriter {
	prefixCopy := make([]byte, len(prefix))
	copy(prefixCopy, prefix)

	return &streamingWriter{
		w:      w,
		daead:  daead,
		buffer: make([]byte, 0, 2*chunkSize),
		prefix: prefixCopy,
	}
}

// Write implements io.Writer. A full chunk is only flushed once more data follows it,
// so the last chunk is always the one marked final.
func (sw *streamingWriter) Write(data []byte) (int, error) {
	sw.buffer = append(sw.buffer, data...)

	for len(sw.buffer) > chunkSize {
		if err := sw.flushChunk(chunkSize, false); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

// Close implements io.Closer, encrypting the remaining buffered data as the final chunk.
func (sw *streamingWriter) Close() error {
	if sw.closed {
		return nil
	}

	sw.closed = true

	return sw.flushChunk(len(sw.buffer), true)
}

func (sw *streamingWriter) flushChunk(size int, final bool) error {
	ad := buildChunkAssociatedData(sw.prefix, sw.chunkIndex, final)

	encrypted, err := sw.daead.EncryptDeterministically(sw.buffer[:size], ad)
	if err != nil {
		return errs.Wrap(errs.ErrCrypto, fmt.Errorf("encrypting chunk: %w", err))
	}

	// Ciphertext length followed by ciphertext
	var length [4]byte

	binary.BigEndian.PutUint32(length[:], uint32(len(encrypted))) //nolint:gosec // bounded by chunkSize

	if _, err := sw.w.Write(length[:]); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("writing chunk size: %w", err))
	}

	if _, err := sw.w.Write(encrypted); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("writing encrypted chunk: %w", err))
	}

	sw.buffer = append(sw.buffer[:0], sw.buffer[size:]...)
	sw.chunkIndex++

	return nil
}

// buildChunkAssociatedData binds a chunk to its file, its position and whether it ends the stream.
func buildChunkAssociatedData(prefix []byte, index uint64, final bool) []byte {
	const chunkIndexSize = 8

	ad := make([]byte, len(prefix)+chunkIndexSize+1)
	copy(ad, prefix)
	binary.BigEndian.PutUint64(ad[len(prefix):], index)

	if final {
		ad[len(ad)-1] = 1
	}

	return ad
}
