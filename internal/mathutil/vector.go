package mathutil

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vector is a 3-element position/direction, reusing golang/geo's r3
// package for the arithmetic (dot, cross, norm) rather than hand
// rolling it, matching the teacher's own dependency on golang/geo.
type Vector = r3.Vector

// AxisConvention fixes forward/right/up at ±X/±Y/±Z respectively
// (spec.md §3): forward is +X, right is +Y, up is +Z. Azimuth is
// measured anti-clockwise from forward in the forward/right plane;
// elevation from the horizontal plane.
const (
	forwardX = 1.0
	rightY   = 1.0
	upZ      = 1.0
)

// Forward, Right, Up are the listener-local unit axes under the fixed
// convention.
var (
	Forward = Vector{X: forwardX, Y: 0, Z: 0}
	Right   = Vector{X: 0, Y: rightY, Z: 0}
	Up      = Vector{X: 0, Y: 0, Z: upZ}
)

// AzimuthElevation returns the (azimuth, elevation) in degrees of v
// expressed in a listener-local frame, both already normalised per
// spec.md §3 (azimuth in [0,360), elevation in [0,90] ∪ [270,360)).
func AzimuthElevation(v Vector) (az, el float64) {
	r := v.Norm()
	if r == 0 {
		return 0, 0
	}
	az = math.Atan2(v.Y, v.X) * 180 / math.Pi
	el = math.Asin(clamp(v.Z/r, -1, 1)) * 180 / math.Pi
	return NormalizeAzimuth(az), NormalizeElevation(el)
}

// InterauralAzimuth returns the angle (degrees, [-90,90]) of v off the
// median (forward/up) plane, used to key the near-field SOS table and
// the parallax computation (spec.md §4.4, §4.5.3).
func InterauralAzimuth(v Vector) float64 {
	r := v.Norm()
	if r == 0 {
		return 0
	}
	return math.Asin(clamp(v.Y/r, -1, 1)) * 180 / math.Pi
}

// NormalizeAzimuth maps any degree value into [0, 360).
func NormalizeAzimuth(az float64) float64 {
	az = math.Mod(az, 360)
	if az < 0 {
		az += 360
	}
	return az
}

// NormalizeElevation maps any degree value into [0,90] ∪ [270,360),
// folding the raw [-90,90] asin range by shifting negative elevations
// by +360 (spec.md §3: "0 at horizon, 90 at north pole, 270 at south
// pole").
func NormalizeElevation(el float64) float64 {
	el = math.Mod(el, 360)
	if el < 0 {
		el += 360
	}
	if el > 90 && el < 270 {
		// Values strictly between the two valid bands cannot arise from
		// AzimuthElevation's asin (range [-90,90] folded once), but callers
		// constructing keys directly could pass one; clamp to nearest band.
		if el-90 < 270-el {
			el = 90
		} else {
			el = 270
		}
	}
	return el
}

// ElevationSigned returns the elevation folded back into [-90,90],
// inverse of the fold NormalizeElevation performs, for trigonometry
// that wants a signed angle (e.g. the quasi-uniform grid's per-ring
// cosine).
func ElevationSigned(el float64) float64 {
	if el >= 270 {
		return el - 360
	}
	return el
}

// GreatCircleAngle returns the angle in degrees between two
// (azimuth, elevation) orientations, used by the HRTF service's
// nearest-point extrapolation (spec.md §4.3 step 1). Computed via the
// unit-vector dot product rather than a hand-rolled haversine formula,
// using golang/geo's r3.Vector.
func GreatCircleAngle(az1, el1, az2, el2 float64) float64 {
	v1 := DirectionFromAzEl(az1, el1)
	v2 := DirectionFromAzEl(az2, el2)
	d := clamp(v1.Dot(v2), -1, 1)
	return math.Acos(d) * 180 / math.Pi
}

// DirectionFromAzEl converts an (azimuth, elevation) pair in degrees,
// under the fixed axis convention, to a unit direction vector.
func DirectionFromAzEl(az, el float64) Vector {
	azr := az * math.Pi / 180
	elr := ElevationSigned(el) * math.Pi / 180
	cosEl := math.Cos(elr)
	return Vector{
		X: cosEl * math.Cos(azr),
		Y: cosEl * math.Sin(azr),
		Z: math.Sin(elr),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
