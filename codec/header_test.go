package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	for _, raw := range []bool{false, true} {
		h := header{ID: Zstd, TypeSize: 4, UncompressedLen: 12345, Raw: raw}

		buf := make([]byte, headerSize)
		n := h.encode(buf)
		require.Equal(t, headerSize, n)

		got, rest, err := decodeHeader(buf)
		require.NoError(t, err)
		require.Empty(t, rest)
		require.Equal(t, h, got)
	}
}

func TestDecodeHeaderRejectsShortInput(t *testing.T) {
	_, _, err := decodeHeader(make([]byte, headerSize-1))
	require.Error(t, err)
}

func TestDecodeHeaderRejectsUnknownCodec(t *testing.T) {
	h := header{ID: ID(99), TypeSize: 1, UncompressedLen: 1}
	buf := make([]byte, headerSize)
	h.encode(buf)

	_, _, err := decodeHeader(buf)
	require.Error(t, err)
}
