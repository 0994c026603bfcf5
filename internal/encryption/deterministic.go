package encryption

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tink-crypto/tink-go/v2/daead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	aes_sivpb "github.com/tink-crypto/tink-go/v2/proto/aes_siv_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"

	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/keys"
)

// sivTagSize is the synthetic IV prepended to every AES-SIV ciphertext.
const sivTagSize = 16

// encryptSealed writes header || salt || chunks to w.
func encryptSealed(r io.Reader, w io.Writer, key keys.Key, random io.Reader) error {
	salt, err := newSalt(random)
	if err != nil {
		return err
	}

	header := newEnvelopeHeader()
	prefix := append(header, salt...) //nolint:gocritic // header is freshly allocated

	if _, err := w.Write(prefix); err != nil {
		return errs.Wrap(errs.ErrIO, fmt.Errorf("writing header: %w", err))
	}

	primitive, err := newSealedAEAD(key, salt)
	if err != nil {
		return err
	}

	streamingWriter := newStreamingWriter(w, primitive, prefix)

	bufp := getBuffer()
	defer putBuffer(bufp)

	if _, err := io.CopyBuffer(streamingWriter, onlyReader{r}, *bufp); err != nil {
		if errors.Is(err, errs.ErrCrypto) || errors.Is(err, errs.ErrIO) {
			return err
		}

		return errs.Wrap(errs.ErrIO, fmt.Errorf("reading input: %w", err))
	}

	return streamingWriter.Close()
}

// decryptSealed reads chunks until one authenticates as final and rejects anything after it.
func decryptSealed(r io.Reader, w io.Writer, key keys.Key) error {
	bufReader := bufio.NewReaderSize(r, defaultBufferSize)

	header, err := readEnvelopeHeader(bufReader)
	if err != nil {
		return err
	}

	salt, err := readSalt(bufReader)
	if err != nil {
		return err
	}

	prefix := append(header, salt...) //nolint:gocritic // header is freshly allocated

	primitive, err := newSealedAEAD(key, salt)
	if err != nil {
		return err
	}

	var length [4]byte

	for index := uint64(0); ; index++ {
		if _, err := io.ReadFull(bufReader, length[:]); err != nil {
			return sealedReadError("reading chunk size", err)
		}

		size := binary.BigEndian.Uint32(length[:])
		if size < sivTagSize || size > chunkSize+sivTagSize {
			return fmt.Errorf("%w: chunk %d has invalid size %d", ErrProcessing, index, size)
		}

		encrypted := make([]byte, size)
		if _, err := io.ReadFull(bufReader, encrypted); err != nil {
			return sealedReadError("reading encrypted chunk", err)
		}

		_, peekErr := bufReader.Peek(1)

		final := errors.Is(peekErr, io.EOF)
		if peekErr != nil && !final {
			return errs.Wrap(errs.ErrIO, fmt.Errorf("reading input: %w", peekErr))
		}

		decrypted, err := primitive.DecryptDeterministically(encrypted, buildChunkAssociatedData(prefix, index, final))
		if err != nil {
			return fmt.Errorf("%w: chunk %d failed authentication", ErrProcessing, index)
		}

		if _, err := w.Write(decrypted); err != nil {
			return errs.Wrap(errs.ErrIO, fmt.Errorf("writing decrypted chunk: %w", err))
		}

		if final {
			return nil
		}
	}
}

func sealedReadError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncated, what)
	}

	return errs.Wrap(errs.ErrIO, fmt.Errorf("%s: %w", what, err))
}

// newSealedAEAD derives the per-file AES-SIV primitive.
func newSealedAEAD(key keys.Key, salt []byte) (tink.DeterministicAEAD, error) {
	derived, err := deriveSealed(key, salt)
	if err != nil {
		return nil, err
	}

	kh, err := newDeterministicAEADKeyHandle(derived)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCrypto, fmt.Errorf("creating keyset handle: %w", err))
	}

	primitive, err := daead.New(kh)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCrypto, fmt.Errorf("creating DeterministicAEAD: %w", err))
	}

	return primitive, nil
}

// newDeterministicAEADKeyHandle creates a Tink keyset handle for AES-SIV from raw key bytes.
func newDeterministicAEADKeyHandle(key []byte) (*keyset.Handle, error) {
	aesSivKey := &aes_sivpb.AesSivKey{
		Version:  0,
		KeyValue: key,
	}

	serializedKey, err := proto.Marshal(aesSivKey)
	if err != nil {
		return nil, fmt.Errorf("serializing AesSivKey: %w", err)
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData: &tinkpb.KeyData{
					TypeUrl:         "type.googleapis.com/google.crypto.tink.AesSivKey",
					Value:           serializedKey,
					KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
				},
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	return insecurecleartextkeyset.Read(keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
}

// onlyReader hides WriterTo so io.CopyBuffer uses the pooled buffer.
type onlyReader struct {
	io.Reader
}
