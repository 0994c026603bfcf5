package encryption_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/idelchi/chiffre/internal/encryption"
	"github.com/idelchi/chiffre/internal/errs"
	"github.com/idelchi/chiffre/internal/fileutil"
	"github.com/idelchi/chiffre/internal/keys"
)

const sealedChunk = 64 * 1024

func newKey(t *testing.T) keys.Key {
	t.Helper()

	k, err := keys.Generate(nil)
	if err != nil {
		t.Fatal(err)
	}

	return k
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}

	return b
}

func encrypt(t *testing.T, mode encryption.CipherMode, plain []byte, k keys.Key) []byte {
	t.Helper()

	var out bytes.Buffer
	if err := encryption.NewCodec(mode).Encrypt(bytes.NewReader(plain), &out, k); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	return out.Bytes()
}

func decrypt(mode encryption.CipherMode, ct []byte, k keys.Key) ([]byte, error) {
	var out bytes.Buffer
	err := encryption.NewCodec(mode).Decrypt(bytes.NewReader(ct), &out, k)

	return out.Bytes(), err
}

func TestRoundTripFiles(t *testing.T) {
	t.Parallel()

	sizes := []int{0, 1, 15, 16, 17, 4096, 32*1024 - 1, 32 * 1024, 32*1024 + 1, sealedChunk, sealedChunk + 1, 3*sealedChunk + 7}

	for _, mode := range []encryption.CipherMode{encryption.ModeCBC, encryption.ModeSealed} {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("%v/%d", mode, size), func(t *testing.T) {
				t.Parallel()

				dir := t.TempDir()
				src := filepath.Join(dir, "plain.bin")
				enc := filepath.Join(dir, "plain.bin.encrypted")
				dec := filepath.Join(dir, "restored.bin")

				plain := randomBytes(t, size)
				if err := os.WriteFile(src, plain, 0o644); err != nil {
					t.Fatal(err)
				}

				k := newKey(t)
				codec := encryption.NewCodec(mode)

				encSize, err := codec.EncryptFile(src, enc, k)
				if err != nil {
					t.Fatalf("EncryptFile() error = %v", err)
				}

				info, err := os.Stat(enc)
				if err != nil {
					t.Fatal(err)
				}

				if info.Size() != encSize {
					t.Errorf("EncryptFile() size = %d, file has %d", encSize, info.Size())
				}

				decSize, err := codec.DecryptFile(enc, dec, k)
				if err != nil {
					t.Fatalf("DecryptFile() error = %v", err)
				}

				got, err := os.ReadFile(dec)
				if err != nil {
					t.Fatal(err)
				}

				if !bytes.Equal(got, plain) {
					t.Errorf("round trip mismatch for %d bytes", size)
				}

				if decSize != int64(size) {
					t.Errorf("DecryptFile() size = %d, want %d", decSize, size)
				}
			})
		}
	}
}

func TestCBCFormat(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 5, 16, 100, 40000} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			t.Parallel()

			k := newKey(t)
			plain := randomBytes(t, size)
			ct := encrypt(t, encryption.ModeCBC, plain, k)

			wantLen := encryption.SaltSize + (size/aes.BlockSize+1)*aes.BlockSize
			if len(ct) != wantLen {
				t.Fatalf("ciphertext length = %d, want %d", len(ct), wantLen)
			}

			// Independent decryption: PBKDF2-SHA256(key, salt, 10000) -> 32-byte key || 16-byte IV.
			salt, body := ct[:encryption.SaltSize], ct[encryption.SaltSize:]
			derived := pbkdf2.Key(k.Bytes(), salt, 10000, 48, sha256.New)

			block, err := aes.NewCipher(derived[:32])
			if err != nil {
				t.Fatal(err)
			}

			out := make([]byte, len(body))
			cipher.NewCBCDecrypter(block, derived[32:]).CryptBlocks(out, body)

			pad := int(out[len(out)-1])
			if pad < 1 || pad > aes.BlockSize {
				t.Fatalf("padding byte = %d", pad)
			}

			if want := bytes.Repeat([]byte{byte(pad)}, pad); !bytes.Equal(out[len(out)-pad:], want) {
				t.Fatalf("padding = %x, want %x", out[len(out)-pad:], want)
			}

			if !bytes.Equal(out[:len(out)-pad], plain) {
				t.Error("reference decryption differs from plaintext")
			}
		})
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	t.Parallel()

	for _, mode := range []encryption.CipherMode{encryption.ModeCBC, encryption.ModeSealed} {
		t.Run(mode.String(), func(t *testing.T) {
			t.Parallel()

			k := newKey(t)
			plain := []byte("identical content")

			if bytes.Equal(encrypt(t, mode, plain, k), encrypt(t, mode, plain, k)) {
				t.Error("two encryptions of the same plaintext are identical")
			}
		})
	}
}

func TestDecryptWrongKeyCBC(t *testing.T) {
	t.Parallel()

	plain := []byte("the quick brown fox jumps over the lazy dog")
	failures := 0

	// Without authentication a wrong key yields valid padding about once in 256 tries.
	for range 16 {
		ct := encrypt(t, encryption.ModeCBC, plain, newKey(t))

		got, err := decrypt(encryption.ModeCBC, ct, newKey(t))
		if err != nil {
			if !errors.Is(err, errs.ErrCrypto) {
				t.Fatalf("Decrypt() error = %v, want ErrCrypto", err)
			}

			failures++

			continue
		}

		if bytes.Equal(got, plain) {
			t.Fatal("wrong key recovered the plaintext")
		}
	}

	if failures == 0 {
		t.Error("no wrong-key decryption was rejected")
	}
}

func TestDecryptWrongKeySealed(t *testing.T) {
	t.Parallel()

	ct := encrypt(t, encryption.ModeSealed, []byte("secret"), newKey(t))

	if _, err := decrypt(encryption.ModeSealed, ct, newKey(t)); !errors.Is(err, errs.ErrCrypto) {
		t.Errorf("Decrypt() error = %v, want ErrCrypto", err)
	}
}

func TestDecryptMalformedCBC(t *testing.T) {
	t.Parallel()

	k := newKey(t)
	valid := encrypt(t, encryption.ModeCBC, randomBytes(t, 40), k)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated salt", data: valid[:10]},
		{name: "salt only", data: valid[:encryption.SaltSize]},
		{name: "not block aligned", data: valid[:len(valid)-3]},
		{name: "one extra byte", data: append(append([]byte{}, valid...), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := decrypt(encryption.ModeCBC, tt.data, k); !errors.Is(err, errs.ErrCrypto) {
				t.Errorf("Decrypt() error = %v, want ErrCrypto", err)
			}
		})
	}
}

func TestDecryptTamperedSealed(t *testing.T) {
	t.Parallel()

	k := newKey(t)
	plain := randomBytes(t, sealedChunk+100)
	valid := encrypt(t, encryption.ModeSealed, plain, k)

	// header (5) + salt + length prefix + first full chunk with its SIV tag
	firstChunkEnd := 5 + encryption.SaltSize + 4 + sealedChunk + 16

	flip := func(at int) []byte {
		b := append([]byte{}, valid...)
		b[at] ^= 0x01

		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: flip(0)},
		{name: "bad version", data: flip(4)},
		{name: "salt changed", data: flip(8)},
		{name: "first chunk changed", data: flip(100)},
		{name: "last byte changed", data: flip(len(valid) - 1)},
		{name: "header only", data: valid[:5+encryption.SaltSize]},
		{name: "final chunk dropped", data: valid[:firstChunkEnd]},
		{name: "final chunk truncated", data: valid[:len(valid)-1]},
		{name: "trailing data", data: append(append([]byte{}, valid...), valid[firstChunkEnd:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := decrypt(encryption.ModeSealed, tt.data, k); !errors.Is(err, errs.ErrCrypto) {
				t.Errorf("Decrypt() error = %v, want ErrCrypto", err)
			}
		})
	}
}

func TestDecryptFileFailureLeavesNoOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "bad.encrypted")
	dst := filepath.Join(dir, "bad")

	if err := os.WriteFile(src, randomBytes(t, 16+64), 0o600); err != nil {
		t.Fatal(err)
	}

	// Retry with fresh keys in case the garbage happens to unpad.
	var err error
	for range 8 {
		if _, err = encryption.NewCodec(encryption.ModeCBC).DecryptFile(src, dst, newKey(t)); err != nil {
			break
		}

		os.Remove(dst)
	}

	if !errors.Is(err, errs.ErrCrypto) {
		t.Fatalf("DecryptFile() error = %v, want ErrCrypto", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after failed decryption, want only the input", len(entries))
	}
}

func TestEncryptFileRejectsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := encryption.NewCodec(encryption.ModeCBC).EncryptFile(dir, filepath.Join(dir, "out.encrypted"), newKey(t))
	if !errors.Is(err, errs.ErrPath) {
		t.Errorf("EncryptFile() error = %v, want ErrPath", err)
	}
}

func TestPreserveTimestamps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")
	enc := filepath.Join(dir, "doc.txt.encrypted")

	if err := os.WriteFile(src, []byte("dated"), 0o644); err != nil {
		t.Fatal(err)
	}

	mtime := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	codec := encryption.NewCodec(encryption.ModeCBC)
	codec.PreserveTimestamps = true

	if _, err := codec.EncryptFile(src, enc, newKey(t)); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(enc)
	if err != nil {
		t.Fatal(err)
	}

	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}

	if perm := info.Mode().Perm(); perm != fileutil.OwnerReadWrite {
		t.Errorf("perm = %o, want %o", perm, fileutil.OwnerReadWrite)
	}
}
