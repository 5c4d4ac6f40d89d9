package schunk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blosc-go/cimage/codec"
)

func newTestCCtxDCtx(t *testing.T, typeSize int) (*codec.CCtx, *codec.DCtx) {
	t.Helper()

	cctx, err := codec.NewCCtx(codec.Params{ID: codec.LZ4, Level: 3, Threads: 1, TypeSize: typeSize})
	require.NoError(t, err)

	return cctx, codec.NewDCtx(1)
}

func TestSChunkAppendAndRead(t *testing.T) {
	cctx, dctx := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16) // 4 elements per chunk
	require.NoError(t, err)

	require.NoError(t, sc.Append([]uint32{1, 2, 3, 4}, cctx))
	require.NoError(t, sc.Append([]uint32{5, 6}, cctx)) // short final chunk

	require.Equal(t, 2, sc.NumChunks())
	require.Equal(t, 6, sc.Size())

	out := make([]uint32, 4)
	require.NoError(t, sc.Read(0, out, dctx))
	require.Equal(t, []uint32{1, 2, 3, 4}, out)

	out2 := make([]uint32, 2)
	require.NoError(t, sc.Read(1, out2, dctx))
	require.Equal(t, []uint32{5, 6}, out2)
}

func TestSChunkAppendRejectsOversizedChunk(t *testing.T) {
	cctx, _ := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16)
	require.NoError(t, err)

	err = sc.Append([]uint32{1, 2, 3, 4, 5}, cctx)
	require.Error(t, err)
}

func TestSChunkAppendAfterShortChunkFails(t *testing.T) {
	cctx, _ := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16)
	require.NoError(t, err)

	require.NoError(t, sc.Append([]uint32{1, 2}, cctx))
	err = sc.Append([]uint32{3, 4}, cctx)
	require.Error(t, err)
}

func TestSChunkUpdateRoundTrip(t *testing.T) {
	cctx, dctx := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16)
	require.NoError(t, err)
	require.NoError(t, sc.Append([]uint32{1, 2, 3, 4}, cctx))

	require.NoError(t, sc.Update(0, []uint32{9, 8, 7, 6}, cctx))

	out := make([]uint32, 4)
	require.NoError(t, sc.Read(0, out, dctx))
	require.Equal(t, []uint32{9, 8, 7, 6}, out)

	err = sc.Update(0, []uint32{1}, cctx)
	require.Error(t, err)
}

func TestSChunkAppendPrecompressed(t *testing.T) {
	cctx, dctx := newTestCCtxDCtx(t, 4)

	src, err := NewSChunk[uint32](16)
	require.NoError(t, err)
	require.NoError(t, src.Append([]uint32{10, 20, 30, 40}, cctx))

	compressed := make([]byte, src.CSize())
	copy(compressed, src.chunks[0].bytes)

	dst, err := NewSChunk[uint32](16)
	require.NoError(t, err)
	require.NoError(t, dst.AppendPrecompressed(compressed))

	out := make([]uint32, 4)
	require.NoError(t, dst.Read(0, out, dctx))
	require.Equal(t, []uint32{10, 20, 30, 40}, out)
}

func TestSChunkAppendPrecompressedRejectsTypeSizeMismatch(t *testing.T) {
	cctx, _ := newTestCCtxDCtx(t, 4)

	src, err := NewSChunk[uint32](16)
	require.NoError(t, err)
	require.NoError(t, src.Append([]uint32{1, 2, 3, 4}, cctx))

	dst, err := NewSChunk[uint16](16)
	require.NoError(t, err)

	err = dst.AppendPrecompressed(src.chunks[0].bytes)
	require.Error(t, err)
}

func TestSChunkToUncompressed(t *testing.T) {
	cctx, dctx := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16)
	require.NoError(t, err)
	require.NoError(t, sc.Append([]uint32{1, 2, 3, 4}, cctx))
	require.NoError(t, sc.Append([]uint32{5, 6, 7}, cctx))

	out, err := sc.ToUncompressed(dctx)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 7}, out)
}

func TestSChunkReadRejectsOutOfRangeIndex(t *testing.T) {
	_, dctx := newTestCCtxDCtx(t, 4)

	sc, err := NewSChunk[uint32](16)
	require.NoError(t, err)

	err = sc.Read(0, make([]uint32, 4), dctx)
	require.Error(t, err)
}
