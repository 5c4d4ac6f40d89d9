package schunk

import (
	"fmt"

	"github.com/blosc-go/cimage/codec"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
	"github.com/blosc-go/cimage/internal/hash"
)

// lazySlot is one chunk of a LazySChunk: either a materialized compressed
// buffer, or a fill value standing in for "every element here equals this,
// and has never been compressed." elems is valid in both cases.
type lazySlot[T imgtype.Numeric] struct {
	compressed []byte
	fill       T
	isFill     bool
	elems      int
}

// LazySChunk is the lazy half of the store described in spec.md §4.3: a
// chunk that has never been written holds only a fill value and a count,
// and is materialized into a real compressed buffer only on first Update
// (or when the whole container is eagerly converted via ToSChunk).
type LazySChunk[T imgtype.Numeric] struct {
	chunks    []lazySlot[T]
	chunkSize int
}

// NewFilled creates a LazySChunk of totalElems elements, all equal to
// value, split into chunks of up to chunkSize/sizeof(T) elements each. No
// compression happens until a chunk is updated or the container is
// converted with ToSChunk.
func NewFilled[T imgtype.Numeric](value T, totalElems, chunkSize int) (*LazySChunk[T], error) {
	elemSize := imgtype.ElemSize[T]()
	if chunkSize <= 0 || chunkSize%elemSize != 0 {
		return nil, fmt.Errorf("%w: chunk_size must be a positive multiple of sizeof(T)=%d, got %d", errs.ErrInvalidArgument, elemSize, chunkSize)
	}
	if totalElems < 0 {
		return nil, fmt.Errorf("%w: total element count must be non-negative, got %d", errs.ErrInvalidArgument, totalElems)
	}

	ls := &LazySChunk[T]{chunkSize: chunkSize}

	epc := ElemsPerChunk[T](chunkSize)
	remaining := totalElems
	for remaining > 0 {
		n := epc
		if n > remaining {
			n = remaining
		}
		ls.chunks = append(ls.chunks, lazySlot[T]{fill: value, isFill: true, elems: n})
		remaining -= n
	}

	return ls, nil
}

// ChunkSize returns the configured per-chunk uncompressed byte capacity.
func (ls *LazySChunk[T]) ChunkSize() int { return ls.chunkSize }

// Read materializes chunk i's elements into out without mutating the
// chunk's own storage: a fill chunk is broadcast directly, a materialized
// chunk is decompressed.
func (ls *LazySChunk[T]) Read(i int, out []T, dctx *codec.DCtx) error {
	if i < 0 || i >= len(ls.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(ls.chunks))
	}

	s := ls.chunks[i]
	if len(out) != s.elems {
		return fmt.Errorf("%w: read expects %d elements, got %d", errs.ErrSizeMismatch, s.elems, len(out))
	}

	if s.isFill {
		for j := range out {
			out[j] = s.fill
		}

		return nil
	}

	_, err := dctx.Decompress(s.compressed, imgtype.AsBytes(out))

	return err
}

// ToUncompressed decompresses (and broadcasts fill values for) every chunk
// into a single contiguous slice, in chunk order.
func (ls *LazySChunk[T]) ToUncompressed(dctx *codec.DCtx) ([]T, error) {
	out := make([]T, ls.Size())

	offset := 0
	for i := range ls.chunks {
		n := ls.chunks[i].elems
		if err := ls.Read(i, out[offset:offset+n], dctx); err != nil {
			return nil, err
		}
		offset += n
	}

	return out, nil
}

// ToSChunk materializes every chunk into an eager SChunk. Every fill chunk
// with the same (value, element count) pair is compressed exactly once and
// the result reused, keyed by internal/hash.FillKey, since a repeated fill
// broadcast always compresses to the same bytes.
func (ls *LazySChunk[T]) ToSChunk(cctx *codec.CCtx) (*SChunk[T], error) {
	sc, err := NewSChunk[T](ls.chunkSize)
	if err != nil {
		return nil, err
	}

	elemSize := imgtype.ElemSize[T]()
	fillCache := make(map[uint64][]byte)

	for _, s := range ls.chunks {
		if !s.isFill {
			buf := make([]byte, len(s.compressed))
			copy(buf, s.compressed)
			sc.chunks = append(sc.chunks, slot{bytes: buf, elems: s.elems})

			continue
		}

		valBytes := imgtype.AsBytes([]T{s.fill})
		key := hash.FillKey(valBytes, s.elems)

		compressed, cached := fillCache[key]
		if !cached {
			data := make([]T, s.elems)
			for j := range data {
				data[j] = s.fill
			}

			scratch := make([]byte, codec.MinCompressedSize(s.elems*elemSize))
			n, err := cctx.Compress(imgtype.AsBytes(data), scratch)
			if err != nil {
				return nil, err
			}

			compressed = make([]byte, n)
			copy(compressed, scratch[:n])
			fillCache[key] = compressed
		}

		buf := make([]byte, len(compressed))
		copy(buf, compressed)
		sc.chunks = append(sc.chunks, slot{bytes: buf, elems: s.elems})
	}

	return sc, nil
}

// Update materializes chunk i (if it was still a fill value) and
// compresses data into it. data must have exactly as many elements as the
// chunk it replaces.
func (ls *LazySChunk[T]) Update(i int, data []T, cctx *codec.CCtx) error {
	if i < 0 || i >= len(ls.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(ls.chunks))
	}
	if len(data) != ls.chunks[i].elems {
		return fmt.Errorf("%w: update expects %d elements, got %d", errs.ErrSizeMismatch, ls.chunks[i].elems, len(data))
	}

	scratch := make([]byte, codec.MinCompressedSize(len(data)*imgtype.ElemSize[T]()))
	n, err := cctx.Compress(imgtype.AsBytes(data), scratch)
	if err != nil {
		return err
	}

	buf := make([]byte, n)
	copy(buf, scratch[:n])
	ls.chunks[i] = lazySlot[T]{compressed: buf, elems: ls.chunks[i].elems}

	return nil
}

// UpdatePrecompressed materializes chunk i with an already-compressed
// buffer, which must decompress to the same element count as the chunk it
// replaces.
func (ls *LazySChunk[T]) UpdatePrecompressed(i int, compressed []byte) error {
	if i < 0 || i >= len(ls.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(ls.chunks))
	}

	_, typeSize, uncompressedLen, err := codec.PeekChunkInfo(compressed)
	if err != nil {
		return err
	}

	elemSize := imgtype.ElemSize[T]()
	if typeSize != elemSize {
		return fmt.Errorf("%w: precompressed chunk type size %d does not match sizeof(T)=%d", errs.ErrSizeMismatch, typeSize, elemSize)
	}
	if uncompressedLen%elemSize != 0 {
		return fmt.Errorf("%w: precompressed chunk uncompressed length %d is not a multiple of sizeof(T)=%d", errs.ErrCodecFailure, uncompressedLen, elemSize)
	}

	elems := uncompressedLen / elemSize
	if elems != ls.chunks[i].elems {
		return fmt.Errorf("%w: update expects %d elements, got %d", errs.ErrSizeMismatch, ls.chunks[i].elems, elems)
	}

	buf := make([]byte, len(compressed))
	copy(buf, compressed)
	ls.chunks[i] = lazySlot[T]{compressed: buf, elems: elems}

	return nil
}

// CSize returns the lazy container's current footprint in bytes: the full
// compressed size of every materialized chunk, plus sizeof(T) for every
// chunk still standing in as a fill value. It is O(num_chunks) rather than
// O(size), since an untouched LazySChunk never allocates its full extent.
func (ls *LazySChunk[T]) CSize() int {
	total := 0
	for _, s := range ls.chunks {
		if s.isFill {
			total += imgtype.ElemSize[T]()
		} else {
			total += len(s.compressed)
		}
	}

	return total
}

// Size returns the total number of elements across all chunks.
func (ls *LazySChunk[T]) Size() int {
	total := 0
	for _, s := range ls.chunks {
		total += s.elems
	}

	return total
}

// NumChunks returns the number of chunks in the container.
func (ls *LazySChunk[T]) NumChunks() int { return len(ls.chunks) }

// ChunkElems returns the element count of chunk i.
func (ls *LazySChunk[T]) ChunkElems(i int) (int, error) {
	if i < 0 || i >= len(ls.chunks) {
		return 0, fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(ls.chunks))
	}

	return ls.chunks[i].elems, nil
}

var _ Store[uint8] = (*LazySChunk[uint8])(nil)
