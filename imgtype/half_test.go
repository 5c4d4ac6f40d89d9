package imgtype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat16RoundTripsExactValues(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 2, 0.5, -0.5, 100, -100, 65504} {
		h := FromFloat32(f)
		require.Equal(t, f, h.ToFloat32(), "float32(%v)", f)
	}
}

func TestFloat16PreservesSignOfZero(t *testing.T) {
	require.Equal(t, float32(0), FromFloat32(0).ToFloat32())

	negZero := FromFloat32(float32(math.Copysign(0, -1)))
	require.True(t, math.Signbit(float64(negZero.ToFloat32())))
}

func TestFloat16SaturatesOverflowToInf(t *testing.T) {
	require.True(t, math.IsInf(float64(FromFloat32(1e9).ToFloat32()), 1))
	require.True(t, math.IsInf(float64(FromFloat32(-1e9).ToFloat32()), -1))
}

func TestFloat16RoundsTiesUp(t *testing.T) {
	// 2049 sits exactly halfway between the two binary16 values representable
	// at that exponent, 2048 and 2050; FromFloat32 rounds the tie up.
	require.Equal(t, float32(2050), FromFloat32(2049).ToFloat32())
}

func TestFloat16HandlesSubnormals(t *testing.T) {
	smallest := FromFloat32(6e-8)
	require.Greater(t, smallest.ToFloat32(), float32(0))
	require.Less(t, smallest.ToFloat32(), float32(1e-6))

	require.Equal(t, float32(0), FromFloat32(1e-20).ToFloat32())
}

func TestFloat16RoundTripsViaChannelStorage(t *testing.T) {
	data := []Float16{
		FromFloat32(1.5),
		FromFloat32(-2.25),
		FromFloat32(0),
		FromFloat32(65504),
	}

	raw := AsBytes(data)
	back := FromBytes[Float16](raw, len(data))
	require.Equal(t, data, back)

	for i, h := range back {
		require.Equal(t, data[i].ToFloat32(), h.ToFloat32())
	}
}
