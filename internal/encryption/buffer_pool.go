package encryption

import (
	"sync"
)

const defaultBufferSize = 32 * 1024 // 32KB default buffer size

// bufferPool provides a pool of reusable byte slices for file I/O operations.
//
//nolint:gochecknoglobals
var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, defaultBufferSize)

		return &b
	},
}

func getBuffer() *[]byte {
	return bufferPool.Get().(*[]byte) //nolint:forcetypeassert // pool only holds *[]byte
}

func putBuffer(b *[]byte) {
	bufferPool.Put(b)
}
