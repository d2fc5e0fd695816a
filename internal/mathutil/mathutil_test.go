package mathutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGainRampNoDiscontinuity(t *testing.T) {
	buf := NewBuffer(512)
	for i := range buf {
		buf[i] = 1.0
	}
	buf.GainRamp(0.2, 1.95, 0.05)

	for i := 1; i < len(buf); i++ {
		require.Less(t, abs(buf[i]-buf[i-1]), 0.2)
	}
}

func TestBufferIsSilent(t *testing.T) {
	buf := NewBuffer(16)
	require.True(t, buf.IsSilent())
	buf[3] = 1e-12
	require.False(t, buf.IsSilent())
}

// TestOrientationNormalizationRoundTrip is the "round-trip orientation
// normalisation" testable property from spec.md §8: normalising twice
// yields the same key as normalising once, for arbitrary (az, el).
func TestOrientationNormalizationRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		az := rapid.Float64Range(-10000, 10000).Draw(rt, "az")
		el := rapid.Float64Range(-10000, 10000).Draw(rt, "el")

		k1 := NewOrientationKey(az, el)
		k2 := NewOrientationKey(k1.Azimuth(), k1.Elevation())

		require.Equal(t, k1, k2)
		require.GreaterOrEqual(t, k1.Azimuth(), 0.0)
		require.Less(t, k1.Azimuth(), 360.0)

		el2 := k1.Elevation()
		inBand := (el2 >= 0 && el2 <= 90) || (el2 >= 270 && el2 < 360)
		require.True(t, inBand, "elevation %v out of band", el2)
	})
}

func TestQuaternionRotateConjugateRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		axis := Vector{
			X: rapid.Float64Range(-1, 1).Draw(rt, "x"),
			Y: rapid.Float64Range(-1, 1).Draw(rt, "y"),
			Z: rapid.Float64Range(-1, 1).Draw(rt, "z"),
		}
		if axis.Norm() < 1e-6 {
			return
		}
		angle := rapid.Float64Range(-6.28, 6.28).Draw(rt, "angle")
		q := FromAxisAngle(axis, angle)

		v := Vector{X: 1, Y: 2, Z: 3}
		rotated := q.Rotate(v)
		back := q.InverseRotate(rotated)

		require.InDelta(t, v.X, back.X, 1e-9)
		require.InDelta(t, v.Y, back.Y, 1e-9)
		require.InDelta(t, v.Z, back.Z, 1e-9)
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
