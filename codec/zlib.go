package codec

import (
	"bytes"
	"compress/zlib"
	"io"
)

// zlibCodec implements the Zlib codec id against the standard library.
//
// No zlib implementation appears anywhere in the example pack (lz4, zstd,
// s2 and brotli show up across the pack's go.mod files, zlib never does);
// stdlib compress/zlib is the only reasonable choice here and its level
// range, 0 (NoCompression) through 9 (BestCompression), maps directly onto
// this package's 0-9 scale with no translation needed.
type zlibCodec struct {
	level int
}

func newZlibCodec(level int) *zlibCodec {
	return &zlibCodec{level: level}
}

var _ Codec = (*zlibCodec)(nil)

func (c *zlibCodec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(src); err != nil {
		_ = w.Close()

		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (c *zlibCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := bytes.NewBuffer(make([]byte, 0, dstSize))
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
