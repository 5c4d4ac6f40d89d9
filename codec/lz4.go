package codec

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse; the
// lz4.Compressor maintains internal state that benefits from reuse across
// calls, as in mebo's compress/lz4.go.
var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// lz4HCCompressorPool pools lz4.CompressorHC instances for LZ4HC. The level
// lives on CompressorHC rather than on the plain Compressor mebo pools, so
// LZ4 and LZ4HC need their own pools.
var lz4HCCompressorPool = sync.Pool{
	New: func() any { return &lz4.CompressorHC{} },
}

// lz4CompressionLevels maps our 0-9 level scale onto the handful of
// lz4.CompressionLevel constants the library exposes for LZ4HC.
var lz4CompressionLevels = [10]lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level1,
	lz4.Level2, lz4.Level2,
	lz4.Level3, lz4.Level3,
	lz4.Level4, lz4.Level4,
	lz4.Level5,
}

// lz4Codec implements Codec for both the LZ4 and LZ4HC codec ids. LZ4HC
// routes through the pooled CompressorHC at the CompressionLevel that
// lz4CompressionLevels maps its level to (lz4.Fast at level 0), instead of
// the plain Compressor, exactly as LZ4HC ("high compression")
// is simply LZ4's algorithm run at a higher effort setting upstream.
type lz4Codec struct {
	hc    bool
	level lz4.CompressionLevel
}

func newLZ4Codec(hc bool, level int) *lz4Codec {
	return &lz4Codec{hc: hc, level: lz4CompressionLevels[clampLevel(level)]}
}

var _ Codec = (*lz4Codec)(nil)

func (c *lz4Codec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	var n int
	var err error
	if c.hc {
		lc, _ := lz4HCCompressorPool.Get().(*lz4.CompressorHC)
		lc.Level = c.level
		n, err = lc.CompressBlock(src, dst)
		lz4HCCompressorPool.Put(lc)
	} else {
		lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
		n, err = lc.CompressBlock(src, dst)
		lz4CompressorPool.Put(lc)
	}
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// CompressBlock returns (0, nil) to signal "incompressible, caller
		// should store uncompressed" rather than an error. Hand src back so
		// CCtx.Compress's own raw fallback can store it instead of losing
		// the data behind an empty body.
		return append([]byte(nil), src...), nil
	}

	return dst[:n], nil
}

func (c *lz4Codec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	bufSize := dstSize
	if bufSize <= 0 {
		bufSize = len(src) * 4
	}
	const maxSize = 128 * 1024 * 1024

	for bufSize <= maxSize {
		buf := make([]byte, bufSize)

		n, err := lz4.UncompressBlock(src, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2

				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
