// Package ambisonic implements bilateral ambisonic encoding and the
// offline derivation of ambisonic-domain binaural impulse responses
// from spec.md §4.5.3-§4.5.4: real spherical-harmonic encoding up to
// third order, ACN channel ordering, N3D/SN3D/maxN normalisation.
package ambisonic

import (
	"fmt"
	"math"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// MaxOrder is the highest ambisonic order this package hard-codes
// encoding formulas for (spec.md §4.5.3: "supports up to third-order
// ambisonics").
const MaxOrder = 3

// Channels returns (order+1)^2, the ACN channel count for an
// ambisonic signal of the given order.
func Channels(order int) int {
	return (order + 1) * (order + 1)
}

// Normalization selects the per-channel scale convention applied on
// top of the N3D-derived formulas below (spec.md §3 "Normalisation
// convention").
type Normalization int

const (
	N3D Normalization = iota
	SN3D
	MaxN
)

// n3dToSN3D is sqrt(1/(2l+1)) per ACN channel's order l, the standard
// SN3D-from-N3D conversion factor.
func n3dToSN3D(acn int) float64 {
	l := orderOf(acn)
	return 1 / math.Sqrt(float64(2*l+1))
}

// maxNFactor is the classic FuMa maxN per-channel weight, defined only
// up to third order (spec.md §4.5.3).
func maxNFactor(acn int) float64 {
	switch acn {
	case 0:
		return 1 / math.Sqrt(2)
	case 1, 2, 3:
		return 1
	case 4, 5, 6, 7, 8:
		return 2 / math.Sqrt(3)
	case 9, 10, 11, 12, 13, 14, 15:
		return math.Sqrt(8.0 / 5.0) // empirical FuMa third-order scale
	default:
		return 1
	}
}

func orderOf(acn int) int {
	l := 0
	for (l+1)*(l+1) <= acn {
		l++
	}
	return l
}

// Encode returns the ACN-ordered, N3D-normalised (then rescaled per
// norm) real spherical-harmonic gains for the direction (az, el), for
// order in [0, MaxOrder]. The formulas are the closed-form degree-0..3
// real SH basis in the forward/left/up axis convention (spec.md
// §4.5.3), hard-coded rather than computed via a general associated-
// Legendre recursion since only orders up to 3 are in scope.
func Encode(order int, az, el float64, norm Normalization) ([]float64, error) {
	if order < 0 || order > MaxOrder {
		return nil, fmt.Errorf("ambisonic: order %d out of range [0,%d]", order, MaxOrder)
	}

	dir := mathutil.DirectionFromAzEl(az, el)
	x := dir.Dot(mathutil.Forward)
	right := dir.Dot(mathutil.Right)
	y := -right // left-handed ambisonic convention: Y points left
	z := dir.Dot(mathutil.Up)

	full := make([]float64, 16)
	full[0] = 1

	full[1] = math.Sqrt(3) * y
	full[2] = math.Sqrt(3) * z
	full[3] = math.Sqrt(3) * x

	full[4] = math.Sqrt(15) * x * y
	full[5] = math.Sqrt(15) * y * z
	full[6] = math.Sqrt(5) / 2 * (3*z*z - 1)
	full[7] = math.Sqrt(15) * x * z
	full[8] = math.Sqrt(15) / 2 * (x*x - y*y)

	full[9] = math.Sqrt(35.0/8) * y * (3*x*x - y*y)
	full[10] = math.Sqrt(105) * x * y * z
	full[11] = math.Sqrt(21.0/8) * y * (5*z*z - 1)
	full[12] = math.Sqrt(7) / 2 * z * (5*z*z - 3)
	full[13] = math.Sqrt(21.0/8) * x * (5*z*z - 1)
	full[14] = math.Sqrt(105) / 2 * z * (x*x - y*y)
	full[15] = math.Sqrt(35.0/8) * x * (x*x - 3*y*y)

	n := Channels(order)
	out := make([]float64, n)
	for acn := 0; acn < n; acn++ {
		g := full[acn]
		switch norm {
		case SN3D:
			g *= n3dToSN3D(acn)
		case MaxN:
			g *= n3dToSN3D(acn) * maxNFactor(acn)
		}
		out[acn] = g
	}
	return out, nil
}
