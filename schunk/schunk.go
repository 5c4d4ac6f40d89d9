package schunk

import (
	"fmt"

	"github.com/blosc-go/cimage/codec"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
	"github.com/blosc-go/cimage/internal/pool"
)

// SChunk is an ordered sequence of independently compressed chunks, each
// holding up to chunkSize/sizeof(T) elements. It is the eager half of the
// store described in spec.md §4.2: every Append/Update call compresses
// immediately.
type SChunk[T imgtype.Numeric] struct {
	chunks    []slot
	chunkSize int
}

// NewSChunk creates an empty SChunk whose full chunks hold chunkSize bytes
// of uncompressed data. chunkSize must be a positive multiple of sizeof(T).
func NewSChunk[T imgtype.Numeric](chunkSize int) (*SChunk[T], error) {
	elemSize := imgtype.ElemSize[T]()
	if chunkSize <= 0 || chunkSize%elemSize != 0 {
		return nil, fmt.Errorf("%w: chunk_size must be a positive multiple of sizeof(T)=%d, got %d", errs.ErrInvalidArgument, elemSize, chunkSize)
	}

	return &SChunk[T]{chunkSize: chunkSize}, nil
}

// ChunkSize returns the configured per-chunk uncompressed byte capacity.
func (s *SChunk[T]) ChunkSize() int { return s.chunkSize }

func (s *SChunk[T]) elemsPerFullChunk() int { return ElemsPerChunk[T](s.chunkSize) }

func (s *SChunk[T]) lastChunkIsShort() bool {
	if len(s.chunks) == 0 {
		return false
	}

	return s.chunks[len(s.chunks)-1].elems != s.elemsPerFullChunk()
}

// Append compresses data with cctx and appends it as a new chunk. data must
// hold between 1 and chunkSize/sizeof(T) elements; once a short (partial)
// chunk has been appended, no further chunk may follow it.
//
// Its compression scratch comes from the package-level scratch pool rather
// than a fresh allocation, since a caller building up an SChunk one chunk
// at a time (the common case outside the scratch reuse of image's bulk-read
// path, readRun)
// would otherwise allocate and discard one scratch buffer per call.
func (s *SChunk[T]) Append(data []T, cctx *codec.CCtx) error {
	bb := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(bb)

	need := codec.MinCompressedSize(len(data) * imgtype.ElemSize[T]())
	bb.SetLength(need)

	return s.AppendWithScratch(data, cctx, bb.Bytes())
}

// AppendWithScratch is Append with a caller-supplied compression scratch
// buffer, for hot paths (e.g. image.readRun's per-band loop) that reuse
// one buffer across many chunks instead of allocating per call.
func (s *SChunk[T]) AppendWithScratch(data []T, cctx *codec.CCtx, scratch []byte) error {
	epc := s.elemsPerFullChunk()
	if len(data) == 0 || len(data) > epc {
		return fmt.Errorf("%w: append expects 1..%d elements, got %d", errs.ErrInvalidArgument, epc, len(data))
	}
	if s.lastChunkIsShort() {
		return fmt.Errorf("%w: cannot append after a short final chunk", errs.ErrInvalidState)
	}

	need := codec.MinCompressedSize(len(data) * imgtype.ElemSize[T]())
	if len(scratch) < need {
		scratch = make([]byte, need)
	}

	n, err := cctx.Compress(imgtype.AsBytes(data), scratch)
	if err != nil {
		return err
	}

	buf := make([]byte, n)
	copy(buf, scratch[:n])
	s.chunks = append(s.chunks, slot{bytes: buf, elems: len(data)})

	return nil
}

// AppendPrecompressed appends a chunk that has already been compressed
// elsewhere, recovering its element count from its self-describing header
// (per spec.md §6) rather than requiring the caller to decompress it first.
func (s *SChunk[T]) AppendPrecompressed(compressed []byte) error {
	elems, err := s.validatePrecompressed(compressed)
	if err != nil {
		return err
	}

	epc := s.elemsPerFullChunk()
	if elems == 0 || elems > epc {
		return fmt.Errorf("%w: precompressed chunk has %d elements, expected 1..%d", errs.ErrSizeMismatch, elems, epc)
	}
	if s.lastChunkIsShort() {
		return fmt.Errorf("%w: cannot append after a short final chunk", errs.ErrInvalidState)
	}

	buf := make([]byte, len(compressed))
	copy(buf, compressed)
	s.chunks = append(s.chunks, slot{bytes: buf, elems: elems})

	return nil
}

// validatePrecompressed checks a precompressed chunk's header against this
// SChunk's element type and returns its element count.
func (s *SChunk[T]) validatePrecompressed(compressed []byte) (int, error) {
	_, typeSize, uncompressedLen, err := codec.PeekChunkInfo(compressed)
	if err != nil {
		return 0, err
	}

	elemSize := imgtype.ElemSize[T]()
	if typeSize != elemSize {
		return 0, fmt.Errorf("%w: precompressed chunk type size %d does not match sizeof(T)=%d", errs.ErrSizeMismatch, typeSize, elemSize)
	}
	if uncompressedLen%elemSize != 0 {
		return 0, fmt.Errorf("%w: precompressed chunk uncompressed length %d is not a multiple of sizeof(T)=%d", errs.ErrCodecFailure, uncompressedLen, elemSize)
	}

	return uncompressedLen / elemSize, nil
}

// Update replaces chunk i's contents. data must have exactly as many
// elements as the chunk it replaces. Like Append, its scratch buffer comes
// from the package-level scratch pool.
func (s *SChunk[T]) Update(i int, data []T, cctx *codec.CCtx) error {
	bb := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(bb)

	need := codec.MinCompressedSize(len(data) * imgtype.ElemSize[T]())
	bb.SetLength(need)

	return s.UpdateWithScratch(i, data, cctx, bb.Bytes())
}

// UpdateWithScratch is Update with a caller-supplied compression scratch
// buffer.
func (s *SChunk[T]) UpdateWithScratch(i int, data []T, cctx *codec.CCtx, scratch []byte) error {
	if i < 0 || i >= len(s.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(s.chunks))
	}
	if len(data) != s.chunks[i].elems {
		return fmt.Errorf("%w: update expects %d elements, got %d", errs.ErrSizeMismatch, s.chunks[i].elems, len(data))
	}

	need := codec.MinCompressedSize(len(data) * imgtype.ElemSize[T]())
	if len(scratch) < need {
		scratch = make([]byte, need)
	}

	n, err := cctx.Compress(imgtype.AsBytes(data), scratch)
	if err != nil {
		return err
	}

	buf := make([]byte, n)
	copy(buf, scratch[:n])
	s.chunks[i].bytes = buf

	return nil
}

// UpdatePrecompressed replaces chunk i's contents with an already-compressed
// buffer, which must decompress to the same element count as the chunk it
// replaces.
func (s *SChunk[T]) UpdatePrecompressed(i int, compressed []byte) error {
	if i < 0 || i >= len(s.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(s.chunks))
	}

	elems, err := s.validatePrecompressed(compressed)
	if err != nil {
		return err
	}
	if elems != s.chunks[i].elems {
		return fmt.Errorf("%w: update expects %d elements, got %d", errs.ErrSizeMismatch, s.chunks[i].elems, elems)
	}

	buf := make([]byte, len(compressed))
	copy(buf, compressed)
	s.chunks[i].bytes = buf

	return nil
}

// Read decompresses chunk i into out, which must have exactly as many
// elements as that chunk holds.
func (s *SChunk[T]) Read(i int, out []T, dctx *codec.DCtx) error {
	if i < 0 || i >= len(s.chunks) {
		return fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(s.chunks))
	}
	if len(out) != s.chunks[i].elems {
		return fmt.Errorf("%w: read expects %d elements, got %d", errs.ErrSizeMismatch, s.chunks[i].elems, len(out))
	}

	_, err := dctx.Decompress(s.chunks[i].bytes, imgtype.AsBytes(out))

	return err
}

// ToUncompressed decompresses every chunk into a single contiguous slice,
// in chunk order.
func (s *SChunk[T]) ToUncompressed(dctx *codec.DCtx) ([]T, error) {
	out := make([]T, s.Size())

	offset := 0
	for i := range s.chunks {
		n := s.chunks[i].elems
		if err := s.Read(i, out[offset:offset+n], dctx); err != nil {
			return nil, err
		}
		offset += n
	}

	return out, nil
}

// CSize returns the total compressed size in bytes across all chunks.
func (s *SChunk[T]) CSize() int {
	total := 0
	for _, c := range s.chunks {
		total += len(c.bytes)
	}

	return total
}

// Size returns the total number of elements across all chunks.
func (s *SChunk[T]) Size() int {
	total := 0
	for _, c := range s.chunks {
		total += c.elems
	}

	return total
}

// NumChunks returns the number of chunks currently stored.
func (s *SChunk[T]) NumChunks() int { return len(s.chunks) }

// ChunkElems returns the element count of chunk i.
func (s *SChunk[T]) ChunkElems(i int) (int, error) {
	if i < 0 || i >= len(s.chunks) {
		return 0, fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, i, len(s.chunks))
	}

	return s.chunks[i].elems, nil
}

var _ Store[uint8] = (*SChunk[uint8])(nil)
