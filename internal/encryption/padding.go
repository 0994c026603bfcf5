package encryption

import (
	"crypto/aes"
	"crypto/subtle"
	"fmt"
)

// padTail completes the last plaintext chunk with PKCS#7 padding up to the next AES block.
// An aligned tail gains a whole block. The padding is appended in place when tail has room.
func padTail(tail []byte) []byte {
	fill := aes.BlockSize - len(tail)%aes.BlockSize

	for range fill {
		tail = append(tail, byte(fill))
	}

	return tail
}

// unpadTail strips the PKCS#7 padding from the decrypted last chunk.
// The padding bytes are compared in constant time.
func unpadTail(data []byte) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, ErrEmptyData
	}

	fill := int(data[length-1])
	if fill == 0 || fill > aes.BlockSize || fill > length {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidPadding, fill)
	}

	var diff byte
	for _, b := range data[length-fill:] {
		diff |= b ^ byte(fill)
	}

	if subtle.ConstantTimeByteEq(diff, 0) != 1 {
		return nil, ErrInvalidPadding
	}

	return data[:length-fill], nil
}
