package ambisonic

import (
	"math"
	"testing"

	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/hrtf"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestChannelsMatchesOrderSquared(t *testing.T) {
	require.Equal(t, 1, Channels(0))
	require.Equal(t, 4, Channels(1))
	require.Equal(t, 9, Channels(2))
	require.Equal(t, 16, Channels(3))
}

func TestEncodeRejectsOrderAboveMax(t *testing.T) {
	_, err := Encode(MaxOrder+1, 0, 0, N3D)
	require.Error(t, err)
}

func TestEncodeOmniChannelIsAlwaysOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		az := rapid.Float64Range(0, 360).Draw(rt, "az")
		el := rapid.Float64Range(-90, 90).Draw(rt, "el")
		gains, err := Encode(3, az, el, N3D)
		require.NoError(rt, err)
		require.InDelta(rt, 1.0, gains[0], 1e-9)
	})
}

// TestEncodeOnAxisFrontPeaksXChannel is a sanity property:
// on-axis directions should drive exactly one first-order channel to
// its peak magnitude and leave the other two near zero.
func TestEncodeOnAxisFrontPeaksXChannel(t *testing.T) {
	gains, err := Encode(1, 0, 0, N3D)
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(3), gains[3], 1e-9) // ACN3 = X = forward
	require.InDelta(t, 0.0, gains[1], 1e-9)          // Y = left
	require.InDelta(t, 0.0, gains[2], 1e-9)          // Z = up
}

func buildHRTFService(t *testing.T) *hrtf.Service {
	t.Helper()
	const irLen = 32
	const blockSize = 16
	svc := hrtf.NewService(hrtf.GridConfig{StepDegrees: 30}, config.Default().Window, config.Default().SampleRate)
	svc.BeginSetup(irLen, hrtf.NearestPoint, blockSize)
	for az := 0.0; az < 360; az += 30 {
		h := hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}
		h.LeftIR[2] = 1
		h.RightIR[2] = 1
		require.NoError(t, svc.AddHRIR(az, 0, h))
	}
	require.NoError(t, svc.AddHRIR(0, 90, hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}))
	require.NoError(t, svc.AddHRIR(0, 270, hrtf.HRIR{LeftIR: make([]float64, irLen), RightIR: make([]float64, irLen)}))
	require.NoError(t, svc.EndSetup())
	return svc
}

func TestDeriveBIRRequiresReadyService(t *testing.T) {
	svc := hrtf.NewService(hrtf.DefaultGridConfig(), config.Default().Window, config.Default().SampleRate)
	_, err := DeriveBIR(svc, 1, N3D, 16)
	require.Error(t, err)
}

func TestDeriveBIRProducesOneFilterPerChannelPerEar(t *testing.T) {
	svc := buildHRTFService(t)
	bir, err := DeriveBIR(svc, 1, N3D, 16)
	require.NoError(t, err)
	require.Equal(t, 4, bir.ChannelCount)
	require.Len(t, bir.Left, 4)
	require.Len(t, bir.Right, 4)
	for _, f := range bir.Left {
		require.Greater(t, f.NumPartitions(), 0)
	}
}

func TestMaxNFactorsAreFiniteAndPositive(t *testing.T) {
	for acn := 0; acn < 16; acn++ {
		f := maxNFactor(acn)
		require.False(t, math.IsNaN(f))
		require.Greater(t, f, 0.0)
	}
}
