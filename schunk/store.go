package schunk

import (
	"github.com/blosc-go/cimage/codec"
	"github.com/blosc-go/cimage/imgtype"
)

// Store is the read/update surface a channel.Channel and
// channel.ChunkIterator need from a chunked compression container,
// satisfied by both SChunk (eager) and LazySChunk (fill-until-written).
// A Channel owns exactly one Store value; spec.md §9 favors this exclusive
// ownership over sharing one container between two Channels.
type Store[T imgtype.Numeric] interface {
	ChunkSize() int
	Size() int
	CSize() int
	NumChunks() int
	ChunkElems(i int) (int, error)
	Read(i int, out []T, dctx *codec.DCtx) error
	Update(i int, data []T, cctx *codec.CCtx) error
	UpdatePrecompressed(i int, compressed []byte) error
	ToUncompressed(dctx *codec.DCtx) ([]T, error)
}
