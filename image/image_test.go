package image

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blosc-go/cimage/channel"
)

func seqData(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}

	return out
}

func buildImage(t *testing.T) *Image[uint32] {
	t.Helper()

	img, err := FromBuffers([][]uint32{seqData(12), seqData(12), seqData(12)}, 4, 3,
		[]string{"R", "G", "B"}, channel.WithChunkSize(48))
	require.NoError(t, err)

	return img
}

func TestFromBuffersRoundTrip(t *testing.T) {
	img := buildImage(t)

	require.Equal(t, 3, img.NumChannels())
	require.Equal(t, 4, img.Width())
	require.Equal(t, 3, img.Height())
	require.Equal(t, []string{"R", "G", "B"}, img.ChannelNames())

	decompressed, err := img.GetDecompressed()
	require.NoError(t, err)
	require.Len(t, decompressed, 3)
	for _, ch := range decompressed {
		require.Equal(t, seqData(12), ch)
	}
}

func TestFromBuffersRejectsMismatchedShapes(t *testing.T) {
	a, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)
	b, err := channel.FromData(seqData(8), 4, 2)
	require.NoError(t, err)

	_, err = FromChannels([]*channel.Channel[uint32]{a, b}, nil)
	require.Error(t, err)
}

func TestFromChannelsDropsMismatchedNameCount(t *testing.T) {
	a, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)
	b, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)

	img, err := FromChannels([]*channel.Channel[uint32]{a, b}, []string{"only-one"})
	require.NoError(t, err)
	require.Nil(t, img.ChannelNames())
}

func TestFromChannelsWarnsOnMismatchedNameCount(t *testing.T) {
	a, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)
	b, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)

	var messages []string
	img, err := FromChannels([]*channel.Channel[uint32]{a, b}, []string{"only-one"}, func(msg string) {
		messages = append(messages, msg)
	})
	require.NoError(t, err)
	require.Nil(t, img.ChannelNames())
	require.Len(t, messages, 1)
}

func TestFromChannelsWithNilLoggerDoesNotPanic(t *testing.T) {
	a, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)
	b, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = FromChannels([]*channel.Channel[uint32]{a, b}, []string{"only-one"}, nil)
		require.NoError(t, err)
	})
}

func TestFromBuffersWarnsOnMismatchedNameCountViaOptions(t *testing.T) {
	var messages []string
	img, err := FromBuffers([][]uint32{seqData(12), seqData(12)}, 4, 3,
		[]string{"only-one"}, channel.WithLogger(func(msg string) { messages = append(messages, msg) }))
	require.NoError(t, err)
	require.Nil(t, img.ChannelNames())
	require.Len(t, messages, 1)
}

func TestChannelByNameAndOffset(t *testing.T) {
	img := buildImage(t)

	offset, err := img.GetChannelOffset("G")
	require.NoError(t, err)
	require.Equal(t, 1, offset)

	_, err = img.GetChannelOffset("A")
	require.Error(t, err)

	ch, err := img.ChannelByName("B")
	require.NoError(t, err)
	require.Same(t, img.channels[2], ch)
}

func TestAddChannelRequiresNameWhenNamed(t *testing.T) {
	img := buildImage(t)

	extra, err := channel.FromData(seqData(12), 4, 3)
	require.NoError(t, err)

	require.Error(t, img.AddChannel(extra, ""))
	require.NoError(t, img.AddChannel(extra, "A"))
	require.Equal(t, 4, img.NumChannels())
	require.Equal(t, []string{"R", "G", "B", "A"}, img.ChannelNames())
}

func TestRemoveAndExtractChannel(t *testing.T) {
	img := buildImage(t)

	require.NoError(t, img.RemoveChannelByName("G"))
	require.Equal(t, []string{"R", "B"}, img.ChannelNames())
	require.Equal(t, 2, img.NumChannels())

	extracted, err := img.ExtractChannel(0)
	require.NoError(t, err)
	require.NotNil(t, extracted)
	require.Equal(t, []string{"B"}, img.ChannelNames())
}

func TestSetChannelNamesValidatesLength(t *testing.T) {
	img := buildImage(t)

	require.Error(t, img.SetChannelNames([]string{"X"}))
	require.Error(t, img.SetChannelNames([]string{"X", "X", "X"}))
	require.NoError(t, img.SetChannelNames([]string{"X", "Y", "Z"}))
}

func TestMetadataPreservesInsertionOrder(t *testing.T) {
	img := buildImage(t)

	img.Metadata().Set("b", 2)
	img.Metadata().Set("a", 1)
	img.Metadata().Set("b", 22)

	entries := img.Metadata().Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "b", entries[0].Key)
	require.Equal(t, 22, entries[0].Value)
	require.Equal(t, "a", entries[1].Key)
}

func TestCompressionRatioIsPositive(t *testing.T) {
	img := buildImage(t)

	require.Greater(t, img.CompressionRatio(), 0.0)
}

func TestUpdateThreadsFansOutToEveryChannel(t *testing.T) {
	img := buildImage(t)

	require.NoError(t, img.UpdateThreads(3, 16))
	for _, ch := range img.Channels() {
		require.Equal(t, 16, ch.BlockSize())
	}

	decompressed, err := img.GetDecompressed()
	require.NoError(t, err)
	require.Len(t, decompressed, 3)
}
