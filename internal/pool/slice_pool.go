package pool

import "sync"

// SlicePool pools typed slices for reuse, keyed by element type T.
//
// channel.Channel keeps one SlicePool[T] per channel and hands it to every
// ChunkIterator it opens, so repeatedly iterating the same channel reuses
// one decompression buffer instead of allocating a fresh chunk-sized slice
// per iterator. This is the generic analogue of mebo's concrete
// GetInt64Slice / GetFloat64Slice / GetStringSlice helpers, parameterised
// over the image engine's numeric element types instead of a fixed
// concrete type per pool.
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates a new pool for slices of T.
func NewSlicePool[T any]() *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() any { s := []T{}; return &s },
		},
	}
}

// Get retrieves a slice of exactly size elements from the pool, growing it
// if the pooled backing array is too small. The returned cleanup function
// must be called (typically via defer) once the caller is done with the
// slice.
func (p *SlicePool[T]) Get(size int) ([]T, func()) {
	ptr, _ := p.pool.Get().(*[]T)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]T, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { p.pool.Put(ptr) }
}
