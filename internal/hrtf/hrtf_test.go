package hrtf

import (
	"math"
	"testing"

	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func syntheticIR(delay int, length int, decay float64) []float64 {
	ir := make([]float64, length)
	for i := delay; i < length; i++ {
		ir[i] = math.Pow(decay, float64(i-delay))
	}
	return ir
}

func buildService(t *testing.T, gridStep float64) *Service {
	t.Helper()
	const irLen = 64
	const blockSize = 32

	svc := NewService(GridConfig{StepDegrees: gridStep}, config.Default().Window, config.Default().SampleRate)
	svc.BeginSetup(irLen, NearestPoint, blockSize)

	// A coarse sparse measurement set: equator ring every 30 degrees,
	// plus the two poles.
	for az := 0.0; az < 360; az += 30 {
		h := HRIR{
			LeftIR:     syntheticIR(2, irLen, 0.9),
			RightIR:    syntheticIR(5, irLen, 0.9),
			LeftDelay:  2,
			RightDelay: 5,
		}
		require.NoError(t, svc.AddHRIR(az, 0, h))
	}
	require.NoError(t, svc.AddHRIR(0, 90, HRIR{LeftIR: syntheticIR(3, irLen, 0.9), RightIR: syntheticIR(3, irLen, 0.9), LeftDelay: 3, RightDelay: 3}))
	require.NoError(t, svc.AddHRIR(0, 270, HRIR{LeftIR: syntheticIR(3, irLen, 0.9), RightIR: syntheticIR(3, irLen, 0.9), LeftDelay: 3, RightDelay: 3}))

	require.NoError(t, svc.EndSetup())
	return svc
}

func TestServiceLifecycleRejectsQueryBeforeReady(t *testing.T) {
	svc := NewService(DefaultGridConfig(), config.Default().Window, config.Default().SampleRate)
	_, err := svc.GetHRIRPartitioned(0, 0, false)
	require.Error(t, err)
}

func TestServiceEndSetupCoversEveryGridPoint(t *testing.T) {
	svc := buildService(t, 20)
	require.Equal(t, Ready, svc.State())
	require.Equal(t, svc.grid.Len(), len(svc.partitioned))
}

func TestGetHRIRPartitionedNearestVsInterpolated(t *testing.T) {
	svc := buildService(t, 20)

	near, err := svc.GetHRIRPartitioned(5, 2, false)
	require.NoError(t, err)
	require.NotNil(t, near.Left)
	require.NotNil(t, near.Right)

	interp, err := svc.GetHRIRPartitioned(5, 2, true)
	require.NoError(t, err)
	require.NotNil(t, interp.Left)
	require.NotNil(t, interp.Right)
}

// TestGetHRIRPartitionedIsExactAtGridVertex is spec.md §8's
// "barycentric exactness" testable property: a query landing exactly
// on a grid vertex must return the stored partitioned spectrum
// bit-for-bit, not a re-windowed or re-blended approximation of it.
func TestGetHRIRPartitionedIsExactAtGridVertex(t *testing.T) {
	svc := buildService(t, 20)

	var vertex mathutil.OrientationKey
	for k := range svc.partitioned {
		vertex = k
		break
	}
	az, el := vertex.Azimuth(), vertex.Elevation()

	want := svc.partitioned[vertex]
	got, err := svc.GetHRIRPartitioned(az, el, true)
	require.NoError(t, err)

	require.Equal(t, want.LeftDelay, got.LeftDelay)
	require.Equal(t, want.RightDelay, got.RightDelay)
	require.Equal(t, len(want.Left.Partitions), len(got.Left.Partitions))
	for i := range want.Left.Partitions {
		for b := range want.Left.Partitions[i] {
			require.InDelta(t, real(want.Left.Partitions[i][b]), real(got.Left.Partitions[i][b]), 1e-12)
			require.InDelta(t, imag(want.Left.Partitions[i][b]), imag(got.Left.Partitions[i][b]), 1e-12)
			require.InDelta(t, real(want.Right.Partitions[i][b]), real(got.Right.Partitions[i][b]), 1e-12)
			require.InDelta(t, imag(want.Right.Partitions[i][b]), imag(got.Right.Partitions[i][b]), 1e-12)
		}
	}
}

// TestGetHRIRPartitionedInterpolatedBlendsThreeVertices checks that an
// off-vertex query's spectrum equals, bin by bin, the barycentric blend
// of its three enclosing grid vertices' spectra with their weights,
// confirming GetHRIRPartitioned blends in the frequency domain.
func TestGetHRIRPartitionedInterpolatedBlendsThreeVertices(t *testing.T) {
	svc := buildService(t, 20)

	// 15 degrees lies between the equator ring's 20-degree vertices at
	// 0 and 20: guaranteed not to land on a vertex.
	got, err := svc.GetHRIRPartitioned(15, 0, true)
	require.NoError(t, err)

	keys, weights, ok := svc.grid.BarycentricNeighbors(15, 0)
	require.True(t, ok)

	want := blendFilter(
		svc.partitioned[keys[0]].Left, weights[0],
		svc.partitioned[keys[1]].Left, weights[1],
		svc.partitioned[keys[2]].Left, weights[2],
	)
	require.Equal(t, len(want.Partitions), len(got.Left.Partitions))
	for i := range want.Partitions {
		for b := range want.Partitions[i] {
			require.InDelta(t, real(want.Partitions[i][b]), real(got.Left.Partitions[i][b]), 1e-12)
			require.InDelta(t, imag(want.Partitions[i][b]), imag(got.Left.Partitions[i][b]), 1e-12)
		}
	}
}

func TestITDMatchesOnsetDifference(t *testing.T) {
	svc := buildService(t, 20)
	itd, err := svc.ITD(0, 0)
	require.NoError(t, err)
	// equator measurements were seeded with left=2, right=5 samples.
	require.Equal(t, -3, itd)
}

// TestRingAzimuthStepGrowsTowardPoles checks that a ring's azimuth
// spacing is never smaller than the equator's: rings away from the
// equator hold fewer points, so their azimuth step widens as
// |elevation| grows.
func TestRingAzimuthStepGrowsTowardPoles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		gridStep := rapid.Float64Range(2, 20).Draw(rt, "gridStep")
		nBase := int(math.Round(360 / gridStep))

		equatorStep := ringAzimuthStep(nBase, 0)
		midStep := ringAzimuthStep(nBase, 60)

		require.GreaterOrEqual(rt, midStep, equatorStep-1e-9)
	})
}

// TestBarycentricWeightsSumToOne is a sanity property: valid (non-degenerate) triangle weights must always sum
// to 1, so the blended HRIR never changes overall gain.
func TestBarycentricWeightsSumToOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		az0 := rapid.Float64Range(0, 360).Draw(rt, "az0")
		el0 := rapid.Float64Range(-80, 80).Draw(rt, "el0")
		v0 := mathutil.DirectionFromAzEl(az0, el0)
		v1 := mathutil.DirectionFromAzEl(az0+10, el0)
		v2 := mathutil.DirectionFromAzEl(az0+5, el0+10)
		vq := mathutil.DirectionFromAzEl(az0+3, el0+2)

		w0, w1, w2, ok := barycentricWeights(v0, v1, v2, vq)
		if !ok {
			return
		}
		require.InDelta(rt, 1.0, w0+w1+w2, 1e-6)
	})
}

func TestExtrapolateZeroInsertionFillsGaps(t *testing.T) {
	// Eight raw points within 10 degrees of the front give a gap
	// threshold of about 144 degrees; the back (180, 0) is 170 degrees
	// from the nearest of them, so it is a gap.
	var raw []RawEntry
	for _, d := range [][2]float64{{0, 0}, {5, 0}, {10, 0}, {350, 0}, {355, 0}, {0, 5}, {0, 10}, {0, 355}} {
		raw = append(raw, RawEntry{Key: mathutil.NewOrientationKey(d[0], d[1]), HRIR: HRIR{LeftIR: make([]float64, 8), RightIR: make([]float64, 8)}})
	}
	targets := []mathutil.OrientationKey{
		mathutil.NewOrientationKey(0, 0),
		mathutil.NewOrientationKey(180, 0),
	}
	filled := Extrapolate(raw, targets, ZeroInsertion)
	require.Contains(t, filled, mathutil.NewOrientationKey(180, 0))
	require.NotContains(t, filled, mathutil.NewOrientationKey(0, 0))
}
