package encryption

import "fmt"

// CipherMode selects the on-disk format of an encrypted file.
type CipherMode byte

const (
	// ModeCBC is salt || AES-256-CBC with PKCS#7 padding, the default format.
	ModeCBC CipherMode = iota
	// ModeSealed is a versioned, chunked AES-SIV envelope that authenticates every chunk.
	ModeSealed
)

// String returns the mode name used in logs.
func (m CipherMode) String() string {
	switch m {
	case ModeCBC:
		return "cbc"
	case ModeSealed:
		return "sealed"
	default:
		return fmt.Sprintf("mode(%d)", byte(m))
	}
}
