package channel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blosc-go/cimage/codec"
)

func seqData(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}

	return out
}

func TestFromDataRoundTrip(t *testing.T) {
	data := seqData(50) // width=10, height=5

	ch, err := FromData(data, 10, 5, WithChunkSize(4096), WithBlockSize(1024), WithCodec(codec.LZ4))
	require.NoError(t, err)
	require.Equal(t, 1, ch.NumChunks())

	out, err := ch.GetDecompressed()
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestFromDataRejectsSizeMismatch(t *testing.T) {
	_, err := FromData(seqData(49), 10, 5)
	require.Error(t, err)
}

func TestWithLevelClampsAndWarns(t *testing.T) {
	var messages []string
	cfg, err := BuildConfig([]Option{
		WithLogger(func(msg string) { messages = append(messages, msg) }),
		WithLevel(42),
	})
	require.NoError(t, err)
	require.Equal(t, 9, cfg.Level)
	require.Len(t, messages, 1)

	messages = nil
	cfg, err = BuildConfig([]Option{
		WithLevel(-3),
		WithLogger(func(msg string) { messages = append(messages, msg) }),
	})
	require.NoError(t, err)
	require.Equal(t, 0, cfg.Level)
	require.Len(t, messages, 1, "warning fires regardless of WithLevel/WithLogger order")
}

func TestWithLevelInRangeDoesNotWarn(t *testing.T) {
	var called bool
	cfg, err := BuildConfig([]Option{
		WithLogger(func(string) { called = true }),
		WithLevel(5),
	})
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Level)
	require.False(t, called)
}

func TestDefaultLoggerIsNoop(t *testing.T) {
	cfg, err := BuildConfig([]Option{WithLevel(100)})
	require.NoError(t, err)
	require.NotPanics(t, func() { cfg.Logger("anything") })
}

func TestWithLoggerRejectsNil(t *testing.T) {
	_, err := BuildConfig([]Option{WithLogger(nil)})
	require.Error(t, err)
}

func TestZerosAndFullAreCheapUntilWritten(t *testing.T) {
	ch, err := Zeros[uint32](10, 5, WithChunkSize(4096))
	require.NoError(t, err)

	out, err := ch.GetDecompressed()
	require.NoError(t, err)
	for _, v := range out {
		require.Equal(t, uint32(0), v)
	}

	require.Less(t, ch.CompressedBytes(), ch.UncompressedSize()*4)
}

func TestFullLikePreservesShapeAndParams(t *testing.T) {
	original, err := FromData(seqData(50), 10, 5, WithCodec(codec.Zstd), WithLevel(4))
	require.NoError(t, err)

	like, err := FullLike[uint32](original, 7)
	require.NoError(t, err)
	require.Equal(t, original.Width(), like.Width())
	require.Equal(t, original.Height(), like.Height())
	require.Equal(t, original.Compression(), like.Compression())
	require.Equal(t, original.CompressionLevel(), like.CompressionLevel())

	out, err := like.GetDecompressed()
	require.NoError(t, err)
	for _, v := range out {
		require.Equal(t, uint32(7), v)
	}
}

func TestGetSetChunkRoundTrip(t *testing.T) {
	ch, err := FromData(seqData(50), 10, 5, WithChunkSize(4096))
	require.NoError(t, err)

	out := make([]uint32, 50)
	require.NoError(t, ch.GetChunk(0, out))
	require.Equal(t, seqData(50), out)

	modified := make([]uint32, 50)
	copy(modified, out)
	modified[0] = 999
	require.NoError(t, ch.SetChunk(0, modified))

	reread := make([]uint32, 50)
	require.NoError(t, ch.GetChunk(0, reread))
	require.Equal(t, modified, reread)
}

func TestUpdateThreadsDoesNotAffectExistingData(t *testing.T) {
	ch, err := FromData(seqData(50), 10, 5)
	require.NoError(t, err)

	require.NoError(t, ch.UpdateThreads(4, 16384))
	require.Equal(t, 16384, ch.BlockSize())

	out, err := ch.GetDecompressed()
	require.NoError(t, err)
	require.Equal(t, seqData(50), out)
}

func TestUpdateThreadsRejectsBlockSizeNotSmallerThanChunkSize(t *testing.T) {
	ch, err := FromData(seqData(50), 10, 5, WithChunkSize(4096))
	require.NoError(t, err)

	err = ch.UpdateThreads(4, ch.ChunkSize())
	require.Error(t, err)
}
