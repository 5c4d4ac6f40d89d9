package codec

import (
	"fmt"

	"github.com/blosc-go/cimage/errs"
)

// CCtx is a compression context: an algorithm bound to a quality level and
// thread count, reused across every chunk a Channel compresses. Grounded
// on original_source's create_compression_context, which likewise owns a
// reusable, re-parameterisable context rather than allocating one per call.
type CCtx struct {
	params Params
	impl   Compressor
}

// NewCCtx creates a compression context for the given parameters. Level is
// clamped to [0, 9].
func NewCCtx(p Params) (*CCtx, error) {
	if !p.ID.Valid() {
		return nil, fmt.Errorf("%w: invalid codec id %d", errs.ErrInvalidArgument, p.ID)
	}
	if p.TypeSize <= 0 {
		return nil, fmt.Errorf("%w: type size must be positive, got %d", errs.ErrInvalidArgument, p.TypeSize)
	}
	if p.Threads <= 0 {
		p.Threads = 1
	}
	p.Level = clampLevel(p.Level)

	c, err := newCodec(p.ID, p.Level)
	if err != nil {
		return nil, err
	}

	return &CCtx{params: p, impl: c}, nil
}

// ID returns the bound codec id.
func (c *CCtx) ID() ID { return c.params.ID }

// Level returns the bound compression level.
func (c *CCtx) Level() int { return c.params.Level }

// Threads returns the configured worker-pool size.
func (c *CCtx) Threads() int { return c.params.Threads }

// BlockSize returns the configured intra-chunk block size.
func (c *CCtx) BlockSize() int { return c.params.BlockSize }

// TypeSize returns sizeof(T) for the channel this context serves.
func (c *CCtx) TypeSize() int { return c.params.TypeSize }

// UpdateThreads reconfigures the worker-pool size used by subsequent
// Compress calls. In-flight operations are not affected, per spec.md §4.1.
func (c *CCtx) UpdateThreads(threads int) {
	if threads <= 0 {
		threads = 1
	}
	c.params.Threads = threads
}

// Compress compresses src into dst, prefixed with a self-describing header,
// and returns the number of bytes written to dst. dst must be at least
// MinCompressedSize(len(src)) bytes.
//
// Whenever the codec's output would not actually be smaller than src — an
// incompressible chunk, or a codec like lz4 signalling that directly — the
// chunk is stored raw instead, mirroring blosc2's store-raw-on-incompressible
// fallback. This keeps the true worst case at headerSize+len(src), which is
// what Overhead and MinCompressedSize promise.
func (c *CCtx) Compress(src, dst []byte) (int, error) {
	body, err := c.impl.Compress(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %s compress: %v", errs.ErrCodecFailure, c.params.ID, err)
	}

	raw := len(body) >= len(src)
	if raw {
		body = src
	}

	need := headerSize + len(body)
	if len(dst) < need {
		return 0, fmt.Errorf("%w: compressed output needs %d bytes, dst has %d", errs.ErrCodecFailure, need, len(dst))
	}

	h := header{ID: c.params.ID, TypeSize: uint8(c.params.TypeSize), UncompressedLen: uint32(len(src)), Raw: raw}
	n := h.encode(dst)
	copy(dst[n:], body)

	return n + len(body), nil
}

// DCtx is a decompression context, reused across every chunk a Channel
// decompresses. Unlike CCtx it is not bound to one algorithm: each chunk's
// header names the codec it was compressed with, so one DCtx decompresses
// chunks written by any CCtx.
type DCtx struct {
	threads int
	codecs  map[ID]Codec
}

// NewDCtx creates a decompression context with the given worker-pool size.
func NewDCtx(threads int) *DCtx {
	if threads <= 0 {
		threads = 1
	}

	return &DCtx{threads: threads, codecs: make(map[ID]Codec, len(allIDs))}
}

var allIDs = []ID{Blosclz, LZ4, LZ4HC, Zlib, Zstd}

func (d *DCtx) codecFor(id ID) (Codec, error) {
	if c, ok := d.codecs[id]; ok {
		return c, nil
	}

	c, err := newCodec(id, 0)
	if err != nil {
		return nil, err
	}
	d.codecs[id] = c

	return c, nil
}

// Threads returns the configured worker-pool size.
func (d *DCtx) Threads() int { return d.threads }

// UpdateThreads reconfigures the worker-pool size used by subsequent
// Decompress calls. In-flight operations are not affected, per spec.md §4.1.
func (d *DCtx) UpdateThreads(threads int) {
	if threads <= 0 {
		threads = 1
	}
	d.threads = threads
}

// Decompress decompresses src (a header-prefixed chunk produced by some
// CCtx.Compress call) into dst and returns the number of bytes written.
// dst must be at least as large as the chunk's recorded uncompressed
// length.
func (d *DCtx) Decompress(src, dst []byte) (int, error) {
	h, body, err := decodeHeader(src)
	if err != nil {
		return 0, err
	}

	var out []byte
	if h.Raw {
		out = body
	} else {
		c, err := d.codecFor(h.ID)
		if err != nil {
			return 0, err
		}

		out, err = c.Decompress(body, int(h.UncompressedLen))
		if err != nil {
			return 0, fmt.Errorf("%w: %s decompress: %v", errs.ErrCodecFailure, h.ID, err)
		}
	}

	if uint32(len(out)) != h.UncompressedLen {
		return 0, fmt.Errorf("%w: decompressed %d bytes, header says %d", errs.ErrCodecFailure, len(out), h.UncompressedLen)
	}

	if h.UncompressedLen == 0 {
		return 0, nil
	}

	if int(h.TypeSize) <= 0 || len(out)%int(h.TypeSize) != 0 {
		return 0, fmt.Errorf("%w: decompressed length %d is not a multiple of type size %d", errs.ErrCodecFailure, len(out), h.TypeSize)
	}

	if len(dst) < len(out) {
		return 0, fmt.Errorf("%w: decompress output needs %d bytes, dst has %d", errs.ErrCodecFailure, len(out), len(dst))
	}
	copy(dst, out)

	return len(out), nil
}
