package logic

import (
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to a source directory to name its default backup directory.
const BackupSuffix = "_chiffre"

// DefaultBackupDir returns the sibling backup directory of source.
func DefaultBackupDir(source string) string {
	clean := filepath.Clean(source)

	if base := filepath.Base(clean); base == "." || base == ".." || base == string(filepath.Separator) {
		if abs, err := filepath.Abs(clean); err == nil {
			clean = abs
		}
	}

	return clean + BackupSuffix
}

// CipherPath returns where the ciphertext of the entry at rel below a source is written inside backup.
func CipherPath(backup, rel, suffix string) string {
	return filepath.Join(backup, rel) + suffix
}

// PlainPath strips suffix from a ciphertext path. It reports false when the name does not
// carry the suffix or nothing would remain of it.
func PlainPath(cipherPath, suffix string) (string, bool) {
	dir, name := filepath.Split(cipherPath)

	plain, ok := strings.CutSuffix(name, suffix)
	if !ok || plain == "" {
		return "", false
	}

	return dir + plain, true
}
