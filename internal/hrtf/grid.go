package hrtf

import (
	"math"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// GridConfig parameterises the quasi-uniform sphere grid construction
// from spec.md §4.3 step 2.
type GridConfig struct {
	// StepDegrees is the nominal per-ring step; the equator ring's
	// azimuth step is driven to approximately this value.
	StepDegrees float64
}

// DefaultGridConfig is a 5° nominal grid, a common HRTF measurement
// resolution.
func DefaultGridConfig() GridConfig {
	return GridConfig{StepDegrees: 5}
}

// ringElevationStep returns Δφ = 90° / ceil(90/gridStep), spec.md
// §4.3 step 2.
func ringElevationStep(gridStep float64) float64 {
	n := math.Ceil(90 / gridStep)
	if n < 1 {
		n = 1
	}
	return 90 / n
}

// ringAzimuthStep returns the azimuth step for a ring at signed
// elevation φ (degrees): 360° / ceil(N_base * cos(φ)), where N_base is
// the number of azimuth divisions at the equator (ring φ=0), derived
// from StepDegrees so the equator ring's step is ≈ StepDegrees.
func ringAzimuthStep(nBase int, elevationSignedDeg float64) float64 {
	cosPhi := math.Cos(elevationSignedDeg * math.Pi / 180)
	n := math.Ceil(float64(nBase) * cosPhi)
	if n < 1 {
		n = 1
	}
	return 360 / n
}

// Grid enumerates a quasi-uniform sphere grid: latitude rings of
// near-constant elevation step, each with an azimuth step scaled by
// 1/cos(elevation) so ring cells have approximately equal area
// (GLOSSARY "Quasi-uniform sphere grid"). Returns the ordered list of
// grid orientation keys and the side map of azimuth step per ring
// (spec.md §3 "a step map ... keyed by (0, elevation)").
func Grid(cfg GridConfig) ([]mathutil.OrientationKey, stepMap) {
	dPhi := ringElevationStep(cfg.StepDegrees)
	nBase := int(math.Round(360 / cfg.StepDegrees))
	if nBase < 1 {
		nBase = 1
	}

	steps := make(stepMap)
	var keys []mathutil.OrientationKey

	numRings := int(math.Round(180/dPhi)) + 1
	for i := 0; i < numRings; i++ {
		phi := -90 + float64(i)*dPhi
		if phi > 90 {
			phi = 90
		}

		if math.Abs(phi) >= 90-1e-9 {
			el := mathutil.NormalizeElevation(phi)
			steps.set(el, 360)
			keys = append(keys, mathutil.NewOrientationKey(0, el))
			continue
		}

		azStep := ringAzimuthStep(nBase, phi)
		el := mathutil.NormalizeElevation(phi)
		steps.set(el, azStep)

		numAz := int(math.Round(360 / azStep))
		for j := 0; j < numAz; j++ {
			az := float64(j) * azStep
			keys = append(keys, mathutil.NewOrientationKey(az, el))
		}
	}

	return keys, steps
}
