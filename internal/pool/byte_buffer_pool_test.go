package pool

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	require.NotNil(t, bb.B)
	assert.Equal(t, 0, len(bb.B), "new buffer should have zero length")
	assert.Equal(t, 1024, cap(bb.B), "new buffer should have specified capacity")
}

func TestByteBuffer_Bytes(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, []byte("hello")...)

	got := bb.Bytes()

	assert.Equal(t, []byte("hello"), got)
	assert.True(t, &bb.B[0] == &got[0], "Bytes should return the same underlying slice")
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, []byte("some data")...)
	originalCap := cap(bb.B)

	bb.Reset()

	assert.Equal(t, 0, len(bb.B))
	assert.Equal(t, originalCap, cap(bb.B), "Reset should preserve capacity")
}

func TestByteBuffer_Len_Cap(t *testing.T) {
	bb := NewByteBuffer(64)
	assert.Equal(t, 0, bb.Len())

	bb.B = append(bb.B, []byte("test")...)
	assert.Equal(t, 4, bb.Len())
	assert.GreaterOrEqual(t, bb.Cap(), 64)
}

func TestByteBuffer_SetLength_Grows(t *testing.T) {
	bb := NewByteBuffer(16)

	bb.SetLength(100)

	assert.Equal(t, 100, bb.Len())
	assert.GreaterOrEqual(t, bb.Cap(), 100)
}

func TestByteBuffer_SetLength_Shrinks(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.SetLength(64)
	originalCap := cap(bb.B)

	bb.SetLength(10)

	assert.Equal(t, 10, bb.Len())
	assert.Equal(t, originalCap, cap(bb.B), "shrinking must not reallocate")
}

func TestByteBuffer_Write(t *testing.T) {
	bb := NewByteBuffer(64)

	n, err := bb.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("hello"), bb.B)
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, []byte("test data")...)

	var buf bytes.Buffer
	n, err := bb.WriteTo(&buf)

	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "test data", buf.String())
}

func TestByteBuffer_WriteTo_ErrorPropagation(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, []byte("test")...)

	ew := &errorWriter{err: io.ErrShortWrite}
	n, err := bb.WriteTo(ew)

	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, int64(0), n)
}

func TestByteBuffer_Grow_SufficientCapacity(t *testing.T) {
	bb := NewByteBuffer(1024)
	originalCap := cap(bb.B)

	bb.Grow(100)

	assert.Equal(t, originalCap, cap(bb.B), "should not reallocate when capacity is sufficient")
}

func TestByteBuffer_Grow_SmallBuffer(t *testing.T) {
	bb := NewByteBuffer(DefaultBufferSize)
	bb.B = append(bb.B, make([]byte, DefaultBufferSize)...)

	bb.Grow(1024)

	assert.GreaterOrEqual(t, cap(bb.B), DefaultBufferSize+1024)
	assert.Equal(t, DefaultBufferSize, len(bb.B), "length should not change")
}

func TestByteBuffer_Grow_LargeBufferGrowsProportionally(t *testing.T) {
	bb := NewByteBuffer(1)
	largeSize := 4*DefaultBufferSize + 1024
	bb.B = make([]byte, largeSize)

	bb.Grow(2048)

	assert.GreaterOrEqual(t, cap(bb.B), largeSize+2048)
}

func TestByteBuffer_Grow_PreservesData(t *testing.T) {
	bb := NewByteBuffer(16)
	data := []byte("important data that must be preserved")
	bb.B = append(bb.B, data...)

	bb.Grow(DefaultBufferSize * 2)

	assert.Equal(t, data, bb.B)
}

func TestByteBuffer_Grow_ZeroOrNegativeIsNoop(t *testing.T) {
	bb := NewByteBuffer(64)
	originalCap := cap(bb.B)

	bb.Grow(0)
	bb.Grow(-10)

	assert.Equal(t, originalCap, cap(bb.B))
}

func TestByteBufferPool_GetPut(t *testing.T) {
	p := NewByteBufferPool(8192, 65536)

	bb := p.Get()
	require.NotNil(t, bb)
	assert.GreaterOrEqual(t, cap(bb.B), 8192)

	p.Put(bb)
}

func TestByteBufferPool_PutReturnsResetBuffer(t *testing.T) {
	p := NewByteBufferPool(1024, 0)

	bb := p.Get()
	bb.B = append(bb.B, []byte("sensitive data")...)
	p.Put(bb)

	bb2 := p.Get()
	assert.Equal(t, 0, bb2.Len(), "buffer pulled from pool must start empty")
}

func TestByteBufferPool_PutNilIsNoop(t *testing.T) {
	p := NewByteBufferPool(1024, 4096)

	assert.NotPanics(t, func() {
		p.Put(nil)
	})
}

func TestByteBufferPool_DiscardsOversizedBuffers(t *testing.T) {
	p := NewByteBufferPool(1024, 4096)

	bb := p.Get()
	bb.Grow(10000)
	require.Greater(t, cap(bb.B), 4096)

	p.Put(bb)

	bb2 := p.Get()
	assert.LessOrEqual(t, cap(bb2.B), 4096, "oversized buffer should not be recycled")
}

func TestByteBufferPool_NoThresholdKeepsLargeBuffers(t *testing.T) {
	p := NewByteBufferPool(1024, 0)

	bb := p.Get()
	bb.Grow(1024 * 1024)
	p.Put(bb)

	bb2 := p.Get()
	require.NotNil(t, bb2)
}

func TestGetPutScratchBuffer(t *testing.T) {
	bb := GetScratchBuffer()
	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.GreaterOrEqual(t, bb.Cap(), DefaultBufferSize)

	bb.SetLength(256)
	PutScratchBuffer(bb)

	bb2 := GetScratchBuffer()
	assert.Equal(t, 0, bb2.Len(), "scratch buffer from pool must be reset")
	PutScratchBuffer(bb2)
}

func TestScratchBufferPool_ConcurrentAccess(t *testing.T) {
	const goroutines = 64
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			bb := GetScratchBuffer()
			bb.SetLength(128)
			for j := range bb.B {
				bb.B[j] = byte(j)
			}
			PutScratchBuffer(bb)
		}()
	}

	wg.Wait()
}

type errorWriter struct {
	err error
}

func (ew *errorWriter) Write(p []byte) (int, error) {
	return 0, ew.err
}
