package codec

import "github.com/klauspost/compress/s2"

// blosclzCodec implements the Blosclz codec id using klauspost/compress/s2.
//
// c-blosc2's own BloscLZ algorithm has no Go port anywhere in the example
// pack this module was grounded on; s2 is the pack's other fast,
// low-overhead block codec (see mebo's compress/s2.go) and plays the same
// role BloscLZ plays in the original engine: the default, cheapest codec
// id, traded for ratio at higher levels via s2's "better"/"best" modes.
type blosclzCodec struct {
	level int
}

func newBlosclzCodec(level int) *blosclzCodec {
	return &blosclzCodec{level: level}
}

var _ Codec = (*blosclzCodec)(nil)

func (c *blosclzCodec) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	switch {
	case c.level >= 7:
		return s2.EncodeBest(nil, src), nil
	case c.level >= 4:
		return s2.EncodeBetter(nil, src), nil
	default:
		return s2.Encode(nil, src), nil
	}
}

func (c *blosclzCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, src)
}
