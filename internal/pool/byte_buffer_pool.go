// Package pool provides scratch-buffer reuse for compression scratch space.
//
// schunk.SChunk.Append and Update each need a compression scratch sized to
// codec.MinCompressedSize for the call's duration; pulling it from the
// package-level pool here instead of allocating fresh means a caller
// building up or rewriting an SChunk one chunk at a time doesn't pay for a
// new scratch allocation on every call.
package pool

import (
	"io"
	"sync"
)

// Default and maximum sizes for pooled scratch buffers. DefaultBufferSize
// matches the engine's default chunk size (see schunk.DefaultChunkSize);
// MaxBufferThreshold discards buffers grown well past the largest
// chunk_size a caller is likely to configure, so one oversized channel
// doesn't permanently bloat the pool.
const (
	DefaultBufferSize  = 4 * 1024 * 1024  // 4MiB, matches the default chunk size
	MaxBufferThreshold = 64 * 1024 * 1024 // 64MiB
)

// ByteBuffer is a growable, poolable byte buffer.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the given default capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer while retaining its backing array.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// SetLength sets the logical length of the buffer to n, growing the backing
// array if necessary. This is how SChunk.Append and Update size a pooled
// compression scratch to codec.MinCompressedSize of the chunk they write.
func (bb *ByteBuffer) SetLength(n int) {
	bb.Grow(n - len(bb.B))
	bb.B = bb.B[:n]
}

// Grow ensures the buffer can hold requiredBytes additional bytes without
// reallocating.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if requiredBytes <= 0 {
		return
	}

	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := DefaultBufferSize
	if cap(bb.B) > 4*DefaultBufferSize {
		growBy = cap(bb.B) / 4
	}

	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)

	return len(data), nil
}

// WriteTo writes the buffer's contents to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)

	return int64(n), err
}

// ByteBufferPool pools ByteBuffers, discarding ones that grew past
// maxThreshold instead of returning them to the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool of buffers with the given default size.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)

	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var defaultScratchPool = NewByteBufferPool(DefaultBufferSize, MaxBufferThreshold)

// GetScratchBuffer retrieves a ByteBuffer from the default scratch pool.
func GetScratchBuffer() *ByteBuffer {
	return defaultScratchPool.Get()
}

// PutScratchBuffer returns a ByteBuffer to the default scratch pool.
func PutScratchBuffer(bb *ByteBuffer) {
	defaultScratchPool.Put(bb)
}
