// Package hrtf implements the HRTF service from spec.md §4.3: loading,
// quasi-uniform sphere-grid resampling, extrapolation of missing
// regions, barycentric triangular interpolation, ITD separation, and
// partitioning for uniformly partitioned convolution.
package hrtf

import (
	"github.com/GrupoDiana/brt/internal/conv"
	"github.com/GrupoDiana/brt/internal/mathutil"
)

// Ear selects the left or right channel of a binaural record.
type Ear int

const (
	Left Ear = iota
	Right
)

// HRIR is a raw head-related impulse response record: left/right
// time-domain IRs of fixed length L, with integer per-ear onset
// delays (spec.md §3 "HRIR record").
type HRIR struct {
	LeftIR, RightIR       []float64
	LeftDelay, RightDelay int // samples
}

// Len returns L, the IR length, 0 for a zero-value HRIR.
func (h HRIR) Len() int { return len(h.LeftIR) }

// PartitionedHRIR is an HRIR split into blocks and pre-transformed to
// the frequency domain once (spec.md §3 "Partitioned HRIR record").
// Delays are carried separately from the partitioned spectra.
type PartitionedHRIR struct {
	Left, Right           *conv.Filter
	LeftDelay, RightDelay int
}

// ExtrapolationMethod selects how EndSetup fills orientations the raw
// database never measured (spec.md §4.3 step 1).
type ExtrapolationMethod int

const (
	// ZeroInsertion inserts a zero HRIR for missing orientations.
	ZeroInsertion ExtrapolationMethod = iota
	// NearestPoint copies the angularly closest existing orientation's HRIR.
	NearestPoint
)

// State is the service lifecycle from spec.md §4.6: {Empty} ->
// (BeginSetup) -> {Loading} -> (AddN*k) -> {Loading} -> (EndSetup) ->
// {Ready}. From {Ready} only read queries are legal.
type State int

const (
	Empty State = iota
	Loading
	Ready
)

// stepMap records, per elevation ring, the azimuth step used by the
// quasi-uniform grid (spec.md §3 "a step map describing the azimuth
// step as a function of elevation ring"), keyed the way the spec says:
// an OrientationKey with azimuth fixed at 0.
type stepMap map[mathutil.OrientationKey]float64

func (m stepMap) stepAt(elevation float64) float64 {
	key := mathutil.NewOrientationKey(0, elevation)
	if s, ok := m[key]; ok {
		return s
	}
	return 0
}

func (m stepMap) set(elevation, step float64) {
	key := mathutil.NewOrientationKey(0, elevation)
	m[key] = step
}
