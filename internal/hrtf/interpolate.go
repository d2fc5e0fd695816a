package hrtf

import (
	"sort"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// Grid is a fully resampled HRTF grid: every orientation returned by
// Grid() has an HRIR, either measured or extrapolated (spec.md §4.3
// steps 1-2).
type Grid struct {
	keys []mathutil.OrientationKey
	data map[mathutil.OrientationKey]HRIR
	step stepMap
}

// NewGrid builds a queryable Grid from a resampled key set, its
// per-elevation azimuth-step side table, and the HRIR assigned to
// every key (data must have an entry for every key in keys).
func NewGrid(keys []mathutil.OrientationKey, step stepMap, data map[mathutil.OrientationKey]HRIR) *Grid {
	return &Grid{keys: append([]mathutil.OrientationKey(nil), keys...), data: data, step: step}
}

// Len reports the number of grid points.
func (g *Grid) Len() int { return len(g.keys) }

// Keys returns the grid's orientation keys in construction order.
func (g *Grid) Keys() []mathutil.OrientationKey {
	return append([]mathutil.OrientationKey(nil), g.keys...)
}

// HRIR returns the windowed time-domain HRIR stored at key (ok=false
// if key is not a grid point).
func (g *Grid) HRIR(key mathutil.OrientationKey) (HRIR, bool) {
	h, ok := g.data[key]
	return h, ok
}

type neighbor struct {
	key   mathutil.OrientationKey
	angle float64
}

// nearestN returns the n grid points angularly closest to (az, el),
// sorted by increasing angle.
func (g *Grid) nearestN(az, el float64, n int) []neighbor {
	all := make([]neighbor, 0, len(g.keys))
	for _, k := range g.keys {
		angle := mathutil.GreatCircleAngle(az, el, k.Azimuth(), k.Elevation())
		all = append(all, neighbor{key: k, angle: angle})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].angle < all[j].angle })
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// barycentricWeights computes the barycentric coordinates of vq
// relative to the triangle (v0, v1, v2), projected in 3D via the
// triangle's own normal (GLOSSARY "Barycentric interpolation"). ok is
// false when the triangle is degenerate (near-zero area, D≈0), the
// caller's cue to fall back to nearest-point.
func barycentricWeights(v0, v1, v2, vq mathutil.Vector) (w0, w1, w2 float64, ok bool) {
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	normal := e1.Cross(e2)
	denom := normal.Dot(normal)
	const epsilon = 1e-12
	if denom < epsilon {
		return 0, 0, 0, false
	}

	vp1 := v1.Sub(vq)
	vp2 := v2.Sub(vq)
	vp0 := v0.Sub(vq)

	w0 = vp1.Cross(vp2).Dot(normal) / denom
	w1 = vp2.Cross(vp0).Dot(normal) / denom
	w2 = 1 - w0 - w1
	return w0, w1, w2, true
}

// BarycentricNeighbors locates the three grid points angularly nearest
// (az, el) and their barycentric weights over that triangle (spec.md
// §4.3 runtime query). ok is false when fewer than three grid points
// exist, or the three nearest form a degenerate (near-collinear)
// triangle — the "D≈0" edge case from spec.md §4.3/§7 — in which case
// keys[0]/weights[0]=1 is the nearest-point fallback. When the query
// lands on (or within floating-point epsilon of) a grid vertex, ok is
// also false and keys[0] names that vertex exactly, so a caller can
// skip interpolation and read the stored value straight through.
func (g *Grid) BarycentricNeighbors(az, el float64) (keys [3]mathutil.OrientationKey, weights [3]float64, ok bool) {
	near := g.nearestN(az, el, 3)
	if len(near) == 0 {
		return keys, weights, false
	}
	keys[0] = near[0].key
	weights[0] = 1
	if len(near) < 3 {
		return keys, weights, false
	}
	keys[1], keys[2] = near[1].key, near[2].key

	vq := mathutil.DirectionFromAzEl(az, el)
	v0 := mathutil.DirectionFromAzEl(keys[0].Azimuth(), keys[0].Elevation())
	v1 := mathutil.DirectionFromAzEl(keys[1].Azimuth(), keys[1].Elevation())
	v2 := mathutil.DirectionFromAzEl(keys[2].Azimuth(), keys[2].Elevation())

	w0, w1, w2, triOK := barycentricWeights(v0, v1, v2, vq)
	if !triOK {
		return [3]mathutil.OrientationKey{keys[0]}, [3]float64{1, 0, 0}, false
	}

	const vertexEpsilon = 1e-9
	if w0 >= 1-vertexEpsilon {
		return [3]mathutil.OrientationKey{keys[0]}, [3]float64{1, 0, 0}, false
	}
	if w1 >= 1-vertexEpsilon {
		return [3]mathutil.OrientationKey{keys[1]}, [3]float64{1, 0, 0}, false
	}
	if w2 >= 1-vertexEpsilon {
		return [3]mathutil.OrientationKey{keys[2]}, [3]float64{1, 0, 0}, false
	}

	return keys, [3]float64{w0, w1, w2}, true
}
