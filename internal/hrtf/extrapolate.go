package hrtf

import (
	"math"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// RawEntry is one measured (or previously extrapolated) HRIR at a
// known orientation, the unit the raw database is built from before
// resampling onto the quasi-uniform grid.
type RawEntry struct {
	Key  mathutil.OrientationKey
	HRIR HRIR
}

// averageStepDegrees estimates the mean angular spacing of n points
// roughly uniformly scattered over a sphere of solid angle 4π: each
// point "owns" on average 4π/n steradians, so the corresponding cap
// angle is approximately sqrt(4π/n) radians.
func averageStepDegrees(n int) float64 {
	if n <= 0 {
		return 360
	}
	radians := math.Sqrt(4 * math.Pi / float64(n))
	return radians * 180 / math.Pi
}

// nearest returns the RawEntry angularly closest to key, and the
// great-circle angle to it in degrees.
func nearest(raw []RawEntry, key mathutil.OrientationKey) (RawEntry, float64) {
	var best RawEntry
	bestAngle := math.Inf(1)
	az, el := key.Azimuth(), key.Elevation()
	for _, r := range raw {
		rAz, rEl := r.Key.Azimuth(), r.Key.Elevation()
		angle := mathutil.GreatCircleAngle(az, el, rAz, rEl)
		if angle < bestAngle {
			bestAngle = angle
			best = r
		}
	}
	return best, bestAngle
}

// Extrapolate fills every orientation in targets that the raw database
// does not cover within twice the empirical average angular step
// (spec.md §4.3 step 1). Covered targets are left out of the returned
// map; EndSetup fills those from the raw entry with the same key, or
// else copies the nearest raw entry (no interpolation between raw
// entries is done).
func Extrapolate(raw []RawEntry, targets []mathutil.OrientationKey, method ExtrapolationMethod) map[mathutil.OrientationKey]HRIR {
	filled := make(map[mathutil.OrientationKey]HRIR)
	if len(raw) == 0 {
		for _, t := range targets {
			filled[t] = zeroHRIR(0)
		}
		return filled
	}

	threshold := 2 * averageStepDegrees(len(raw))
	irLen := raw[0].HRIR.Len()

	for _, t := range targets {
		near, angle := nearest(raw, t)
		if angle <= threshold {
			continue
		}
		switch method {
		case NearestPoint:
			filled[t] = near.HRIR
		default: // ZeroInsertion
			filled[t] = zeroHRIR(irLen)
		}
	}
	return filled
}

func zeroHRIR(length int) HRIR {
	return HRIR{
		LeftIR:  make([]float64, length),
		RightIR: make([]float64, length),
	}
}
