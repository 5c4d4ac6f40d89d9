// Package codec is the block-compressor adapter described in spec.md §4.1.
//
// It maps an abstract codec id and a quality level onto one of the
// compression libraries in the example pack, owns compression/decompression
// contexts parameterised by thread count, and performs one-shot
// compress/decompress of a chunk's bytes. Every chunk produced by a
// context carries a small self-describing header (see header.go) so that
// a single DCtx can decompress chunks regardless of which codec produced
// them — mirroring c-blosc2's own self-describing chunk format, which
// spec.md §6 requires of the external codec.
package codec

import (
	"fmt"

	"github.com/blosc-go/cimage/errs"
)

// ID identifies one of the compression algorithms spec.md §6 enumerates.
type ID uint8

const (
	Blosclz ID = iota + 1
	LZ4
	LZ4HC
	Zlib
	Zstd
)

// String implements fmt.Stringer.
func (id ID) String() string {
	switch id {
	case Blosclz:
		return "blosclz"
	case LZ4:
		return "lz4"
	case LZ4HC:
		return "lz4hc"
	case Zlib:
		return "zlib"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Valid reports whether id is one of the defined constants.
func (id ID) Valid() bool {
	switch id {
	case Blosclz, LZ4, LZ4HC, Zlib, Zstd:
		return true
	default:
		return false
	}
}

// Compressor compresses a single buffer in one shot.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
}

// Decompressor decompresses a single buffer in one shot. dstSize is the
// expected decompressed length, used to preallocate (and, where the
// underlying library supports it, validate against) the output buffer.
type Decompressor interface {
	Decompress(src []byte, dstSize int) ([]byte, error)
}

// Codec combines both compression and decompression for one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// Params configures a CCtx/DCtx pair: which algorithm, at what quality
// level, using how many worker threads, with what intra-chunk block size
// and element size hint.
type Params struct {
	ID ID
	// Level is the quality/speed trade-off, clamped to [0, 9].
	Level int
	// Threads sizes the codec's internal worker pool.
	Threads int
	// BlockSize is the intra-chunk parallel unit; must be smaller than the
	// chunk size it will be used with. Carried through for API fidelity
	// and reported back via Channel.BlockSize — none of the wired Go
	// compression libraries expose a matching intra-buffer block knob, so
	// it does not otherwise affect how Compress/Decompress behave.
	BlockSize int
	// TypeSize is sizeof(T) for the channel this context serves.
	TypeSize int
}

// clampLevel clamps level to [0, 9].
func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 9 {
		return 9
	}

	return level
}

// Overhead is the maximum number of bytes a chunk's header can add on top
// of the uncompressed size. CCtx.Compress never lets a codec's body exceed
// len(src): an incompressible chunk falls back to being stored raw instead,
// the way blosc2 falls back to a memcpy store when a codec would expand the
// data, so headerSize is a true bound rather than a per-codec guess.
const Overhead = headerSize

// MinCompressedSize returns the minimum scratch size needed to hold a
// compressed chunk of chunkSize uncompressed bytes, per spec.md §4.1.
func MinCompressedSize(chunkSize int) int {
	return chunkSize + Overhead
}

// MinDecompressedSize returns the minimum scratch size needed to hold a
// decompressed chunk of chunkSize bytes, per spec.md §4.1.
func MinDecompressedSize(chunkSize int) int {
	return chunkSize
}

func newCodec(id ID, level int) (Codec, error) {
	level = clampLevel(level)

	switch id {
	case Blosclz:
		return newBlosclzCodec(level), nil
	case LZ4:
		return newLZ4Codec(false, level), nil
	case LZ4HC:
		return newLZ4Codec(true, level), nil
	case Zlib:
		return newZlibCodec(level), nil
	case Zstd:
		return newZstdCodec(level), nil
	default:
		return nil, fmt.Errorf("%w: invalid codec id %d", errs.ErrInvalidArgument, id)
	}
}
