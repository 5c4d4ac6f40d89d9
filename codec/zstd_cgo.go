//go:build cgo

package codec

import "github.com/valyala/gozstd"

// zstdCodec implements the Zstd codec id via valyala/gozstd, a cgo binding
// onto the reference zstd library. Grounded on mebo's compress/zstd_cgo.go;
// unlike that file (which carries a `//go:build nobuild` tag and is dead in
// the teacher itself) this variant is live behind the standard `cgo` build
// tag, so it is the Zstd implementation used whenever CGO_ENABLED=1 — the
// default for most Go builds.
type zstdCodec struct {
	level int
}

// zstdLevel maps our 0-9 level scale onto the odd zstd levels 1-19, within
// gozstd's native 1-22 level range.
func zstdLevel(level int) int {
	level = clampLevel(level)

	return level*2 + 1
}

func newZstdCodec(level int) *zstdCodec {
	return &zstdCodec{level: zstdLevel(level)}
}

var _ Codec = (*zstdCodec)(nil)

func (c *zstdCodec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, src, c.level), nil
}

func (c *zstdCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	var dst []byte
	if dstSize > 0 {
		dst = make([]byte, 0, dstSize)
	}

	return gozstd.Decompress(dst, src)
}
