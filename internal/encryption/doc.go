// Package encryption encrypts and decrypts single files with a 256-bit backup key.
//
// The default format is a random 16-byte salt followed by AES-256-CBC ciphertext with
// PKCS#7 padding. The AES key and IV are derived from the backup key and salt with
// PBKDF2-SHA256, so encrypting the same file twice yields different bytes. CBC output
// is not authenticated: a wrong key is usually, but not always, reported as a padding error.
//
// The sealed format is an authenticated alternative: a versioned header, a salt and a
// sequence of AES-SIV chunks bound to their index and to the end of the stream.
//
// Files are streamed through pooled buffers and written atomically.
package encryption
