package channel

import "github.com/blosc-go/cimage/imgtype"

// ZipIterator lock-steps several ChunkIterators of the same element type,
// advancing all of them together and yielding their views as one slice
// per step. Generalized from original_source's compressed::ranges::zip
// (which zips raw element slices) to zip whole Channels at chunk
// granularity instead, so e.g. three same-shaped channels of an image can
// be walked and combined chunk-by-chunk without each being decompressed
// into a full in-memory buffer first.
type ZipIterator[T imgtype.Numeric] struct {
	iters []*ChunkIterator[T]
	n     int
}

// Zip creates a ZipIterator over iters, each of which must be freshly
// created (at chunk index 0). The zip visits only as many chunks as the
// shortest source has, matching compressed::ranges::zip's
// mismatched-length behavior.
func Zip[T imgtype.Numeric](iters ...*ChunkIterator[T]) *ZipIterator[T] {
	n := -1
	for _, it := range iters {
		nc := it.channel.store.NumChunks()
		if n == -1 || nc < n {
			n = nc
		}
	}
	if n == -1 {
		n = 0
	}

	return &ZipIterator[T]{iters: iters, n: n}
}

// Len returns the number of lock-step chunks the zip will produce.
func (z *ZipIterator[T]) Len() int { return z.n }

// Done reports whether the zip has visited every chunk of its shortest
// source.
func (z *ZipIterator[T]) Done() bool {
	if len(z.iters) == 0 {
		return true
	}

	return z.iters[0].ChunkIndex() >= z.n
}

// Views dereferences every source at the zip's current position, in
// argument order.
func (z *ZipIterator[T]) Views() ([]*ChunkView[T], error) {
	views := make([]*ChunkView[T], len(z.iters))
	for i, it := range z.iters {
		v, err := it.View()
		if err != nil {
			return nil, err
		}
		views[i] = v
	}

	return views, nil
}

// Advance steps every source to its next chunk.
func (z *ZipIterator[T]) Advance() error {
	for _, it := range z.iters {
		if err := it.Advance(); err != nil {
			return err
		}
	}

	return nil
}

// Close closes every source iterator, forcing write-back of any dirty
// chunk. It attempts to close all sources even if one fails, returning the
// first error encountered.
func (z *ZipIterator[T]) Close() error {
	var firstErr error
	for _, it := range z.iters {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
