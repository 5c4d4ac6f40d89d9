//go:build !cgo

package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec implements the Zstd codec id via klauspost/compress/zstd, a
// pure-Go decoder/encoder. Grounded on mebo's compress/zstd_pure.go,
// including its decoder-reuse pooling: the klauspost library explicitly
// documents that decoders should be kept around after a warmup rather than
// recreated per call.
type zstdCodec struct {
	encLevel zstd.EncoderLevel
}

// zstdEncoderLevels maps our 0-9 level scale onto the four speed/ratio
// buckets klauspost/compress/zstd exposes.
var zstdEncoderLevels = [10]zstd.EncoderLevel{
	zstd.SpeedFastest, zstd.SpeedFastest, zstd.SpeedFastest,
	zstd.SpeedDefault, zstd.SpeedDefault, zstd.SpeedDefault,
	zstd.SpeedBetterCompression, zstd.SpeedBetterCompression,
	zstd.SpeedBestCompression, zstd.SpeedBestCompression,
}

func newZstdCodec(level int) *zstdCodec {
	return &zstdCodec{encLevel: zstdEncoderLevels[clampLevel(level)]}
}

var _ Codec = (*zstdCodec)(nil)

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

func (c *zstdCodec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.encLevel), zstd.WithEncoderCRC(false))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(src, nil), nil
}

func (c *zstdCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	var dst []byte
	if dstSize > 0 {
		dst = make([]byte, 0, dstSize)
	}

	return dec.DecodeAll(src, dst)
}
