package mathutil

import (
	"hash/fnv"
	"math"
)

// Transform is a rigid position + orientation, the value carried on
// `transform`-typed exit points (spec.md §3).
type Transform struct {
	Position    Vector
	Orientation Quaternion
}

// Identity is the transform at the world origin facing Forward.
var Identity = Transform{Orientation: IdentityQuaternion}

// NewTransform builds a Transform at pos facing the given yaw/pitch/roll (radians).
func NewTransform(pos Vector, yaw, pitch, roll float64) Transform {
	return Transform{Position: pos, Orientation: FromYawPitchRoll(yaw, pitch, roll)}
}

// VectorToLocal returns the vector from t to other, expressed in t's
// local frame (i.e. with t's orientation undone).
func (t Transform) VectorToLocal(other Transform) Vector {
	world := other.Position.Sub(t.Position)
	return t.Orientation.InverseRotate(world)
}

// Distance returns the Euclidean distance between t and other.
func (t Transform) Distance(other Transform) float64 {
	return t.Position.Sub(other.Position).Norm()
}

// AzimuthElevation returns the azimuth/elevation (degrees, normalised
// per spec.md §3) of other as seen from t's local frame.
func (t Transform) AzimuthElevation(other Transform) (az, el float64) {
	return AzimuthElevation(t.VectorToLocal(other))
}

// InterauralAzimuth returns the interaural azimuth of other as seen
// from t's local frame.
func (t Transform) InterauralAzimuth(other Transform) float64 {
	return InterauralAzimuth(t.VectorToLocal(other))
}

// Translated returns a copy of t moved by delta in world space.
func (t Transform) Translated(delta Vector) Transform {
	t.Position = t.Position.Add(delta)
	return t
}

// WithPosition returns a copy of t at a new position, orientation unchanged.
func (t Transform) WithPosition(pos Vector) Transform {
	t.Position = pos
	return t
}

// WithOrientation returns a copy of t with a new orientation, position
// unchanged.
func (t Transform) WithOrientation(q Quaternion) Transform {
	t.Orientation = q
	return t
}

// OrientationKey is a (azimuth, elevation) pair normalised per
// spec.md §3, used to key the HRTF/SOS sphere-grid tables. Equality
// uses a resolution of 0.01°, so the key stores the angle rounded to
// hundredths of a degree as integer centi-degrees: this makes the key
// a plain comparable struct (usable directly as a Go map key) while
// still satisfying "equality uses resolution 0.01°".
type OrientationKey struct {
	AzCenti int64
	ElCenti int64
}

const keyResolution = 100 // centi-degrees per degree

// NewOrientationKey normalises (az, el) per spec.md §3 and rounds to
// the nearest 0.01°.
func NewOrientationKey(az, el float64) OrientationKey {
	az = NormalizeAzimuth(az)
	el = NormalizeElevation(el)
	azCenti := round(az * keyResolution)
	if azCenti >= 360*keyResolution {
		azCenti = 0
	}
	elCenti := round(el * keyResolution)
	if elCenti >= 360*keyResolution {
		elCenti = 0
	}
	return OrientationKey{AzCenti: azCenti, ElCenti: elCenti}
}

func round(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// Azimuth returns the key's azimuth in degrees.
func (k OrientationKey) Azimuth() float64 { return float64(k.AzCenti) / keyResolution }

// Elevation returns the key's elevation in degrees.
func (k OrientationKey) Elevation() float64 { return float64(k.ElCenti) / keyResolution }

// Hash returns a stable 64-bit hash of the key, for callers that need
// an explicit hash rather than relying on OrientationKey's use as a Go
// map key (spec.md §3: "a stable hash is required so tables can key
// on it").
func (k OrientationKey) Hash() uint64 {
	h := fnv.New64a()
	var buf [16]byte
	putInt64(buf[0:8], k.AzCenti)
	putInt64(buf[8:16], k.ElCenti)
	h.Write(buf[:])
	return h.Sum64()
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := range 8 {
		b[i] = byte(u >> (8 * i))
	}
}
