package codec

import (
	"fmt"

	"github.com/blosc-go/cimage/endian"
	"github.com/blosc-go/cimage/errs"
)

// A chunk header is written immediately before a codec's compressed
// output. It lets a DCtx recover the codec id, element size and
// uncompressed length without any side metadata, satisfying spec.md §6's
// "compressed chunks are self-describing" requirement for
// append_precompressed and to_uncompressed.
//
// Layout (little-endian, headerSize bytes):
//
//	offset 0: magic byte (headerMagic)
//	offset 1: codec id
//	offset 2: type size (sizeof(T))
//	offset 3: flags (bit 0: flagRaw, body stored uncompressed)
//	offset 4..8: uncompressed length (uint32)
const (
	headerMagic = 0xC1
	headerSize  = 8

	// flagRaw marks a chunk whose body is the uncompressed source bytes
	// verbatim, written whenever CCtx.Compress falls back to storing a
	// chunk raw rather than trust a codec's output, mirroring blosc2's
	// store-raw-on-incompressible mode.
	flagRaw = 1 << 0
)

var engine = endian.GetLittleEndianEngine()

type header struct {
	ID              ID
	TypeSize        uint8
	UncompressedLen uint32
	Raw             bool
}

// encode writes the header into dst[0:headerSize] and returns headerSize.
// dst must have length >= headerSize.
func (h header) encode(dst []byte) int {
	dst[0] = headerMagic
	dst[1] = byte(h.ID)
	dst[2] = h.TypeSize
	dst[3] = 0
	if h.Raw {
		dst[3] |= flagRaw
	}
	engine.PutUint32(dst[4:8], h.UncompressedLen)

	return headerSize
}

// decodeHeader reads a header from the front of src and returns it along
// with the remaining bytes (the codec's own compressed framing, or the raw
// uncompressed body when Raw is set).
func decodeHeader(src []byte) (header, []byte, error) {
	if len(src) < headerSize {
		return header{}, nil, fmt.Errorf("%w: chunk shorter than header (%d bytes)", errs.ErrCodecFailure, len(src))
	}

	if src[0] != headerMagic {
		return header{}, nil, fmt.Errorf("%w: bad chunk magic byte 0x%02x", errs.ErrCodecFailure, src[0])
	}

	h := header{
		ID:              ID(src[1]),
		TypeSize:        src[2],
		UncompressedLen: engine.Uint32(src[4:8]),
		Raw:             src[3]&flagRaw != 0,
	}
	if !h.ID.Valid() {
		return header{}, nil, fmt.Errorf("%w: unknown codec id %d in chunk header", errs.ErrCodecFailure, src[1])
	}

	return h, src[headerSize:], nil
}

// PeekChunkInfo reads a chunk's header without decompressing its body,
// returning the codec id that produced it, sizeof(T) at compression time,
// and the uncompressed length in bytes. schunk.AppendPrecompressed and
// schunk.UpdatePrecompressed use this to recover a precompressed chunk's
// element count without paying for a decompress.
func PeekChunkInfo(src []byte) (id ID, typeSize int, uncompressedLen int, err error) {
	h, _, err := decodeHeader(src)
	if err != nil {
		return 0, 0, 0, err
	}

	return h.ID, int(h.TypeSize), int(h.UncompressedLen), nil
}
