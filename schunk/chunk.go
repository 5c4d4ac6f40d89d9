// Package schunk implements the chunked compression store described in
// spec.md §4.2-§4.3: SChunk, the eager ordered sequence of compressed
// chunks, and LazySChunk, its lazy "fill value until first write" sibling.
// Both share the Store interface (store.go) so channel.Channel and
// channel.ChunkIterator can hold either behind one field, per spec.md §9's
// preference for exclusive ownership over a shared variant.
package schunk

import (
	"fmt"
	"math"

	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
)

// DefaultChunkSize is the default per-chunk uncompressed byte budget: 4MiB,
// enough to hold a 2048x2048 uint8 channel in one chunk, matching
// original_source's s_default_chunksize.
const DefaultChunkSize = 4 * 1024 * 1024

// DefaultBlockSize is the default intra-chunk parallel unit: 32KiB,
// comfortably within the L1 cache of most CPUs, matching
// original_source's s_default_blocksize.
const DefaultBlockSize = 32 * 1024

// slot is one compressed chunk and the number of elements it decompresses
// to. The last slot in a container may hold fewer than a full chunk's
// worth of elements; every other slot holds exactly a full chunk.
type slot struct {
	bytes []byte
	elems int
}

// ElemsPerChunk returns how many T elements fit in a full chunk of
// chunkSize uncompressed bytes.
func ElemsPerChunk[T imgtype.Numeric](chunkSize int) int {
	return chunkSize / imgtype.ElemSize[T]()
}

// AlignChunkSize rounds chunkSize up to the smallest multiple of
// width*sizeof(T) that is >= chunkSize, the scanline-alignment rule of
// spec.md §4.4, and rejects sizes that would exceed the codec's signed
// 32-bit chunk-size limit.
func AlignChunkSize[T imgtype.Numeric](width, chunkSize int) (int, error) {
	if width <= 0 {
		return 0, fmt.Errorf("%w: width must be positive, got %d", errs.ErrInvalidArgument, width)
	}
	if chunkSize <= 0 {
		return 0, fmt.Errorf("%w: chunk_size must be positive, got %d", errs.ErrInvalidArgument, chunkSize)
	}

	scanlineBytes := width * imgtype.ElemSize[T]()
	aligned := ((chunkSize + scanlineBytes - 1) / scanlineBytes) * scanlineBytes

	if aligned > math.MaxInt32 {
		return 0, fmt.Errorf("%w: aligned chunk_size %d exceeds the int32 chunk-size limit", errs.ErrInvalidArgument, aligned)
	}

	return aligned, nil
}

// ValidateBlockSize checks that block_size is smaller than chunk_size and
// positive, per spec.md §3.
func ValidateBlockSize(blockSize, chunkSize int) error {
	if blockSize <= 0 {
		return fmt.Errorf("%w: block_size must be positive, got %d", errs.ErrInvalidArgument, blockSize)
	}
	if blockSize >= chunkSize {
		return fmt.Errorf("%w: block_size (%d) must be smaller than chunk_size (%d)", errs.ErrInvalidArgument, blockSize, chunkSize)
	}

	return nil
}
