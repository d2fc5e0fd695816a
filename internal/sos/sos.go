// Package sos implements the near-field second-order-section filter
// bank from spec.md §4.4: a small table of measured distance ×
// interaural-azimuth coefficient sets, bilinearly interpolated at
// query time, bypassed to identity beyond the near-field distance
// limit.
package sos

import (
	"fmt"
	"sort"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// State mirrors hrtf.Service's {Empty,Loading,Ready} lifecycle
// (spec.md §4.6), kept as an independent type since the two services
// are configured and swapped independently.
type State int

const (
	Empty State = iota
	Loading
	Ready
)

// Entry is one measured two-stage coefficient set at a known
// (distance, interaural azimuth) cell.
type Entry struct {
	Distance         float64 // metres
	InterauralAzimuth float64 // degrees, -90..90
	Left0, Left1     mathutil.BiquadCoeffs
	Right0, Right1   mathutil.BiquadCoeffs
}

// Table is the near-field SOS database. Queries bilinearly interpolate
// across the two nearest distance bins and the two nearest
// interaural-azimuth bins.
type Table struct {
	state State

	nearFieldLimit float64 // metres; GetCoefficients bypasses beyond this

	entries    []Entry
	distances  []float64 // sorted, deduplicated
	azimuths   []float64 // sorted, deduplicated
	byCell     map[cellKey]Entry
}

type cellKey struct {
	distance, azimuth float64
}

// NewTable returns a Table in the {Empty} state. nearFieldLimit is the
// spec's 1.95 m reference distance beyond which near-field filtering
// is bypassed to an identity cascade.
func NewTable(nearFieldLimit float64) *Table {
	return &Table{state: Empty, nearFieldLimit: nearFieldLimit}
}

// BeginSetup transitions {Empty}/{Ready} -> {Loading}, discarding any
// previously loaded table.
func (t *Table) BeginSetup() {
	t.state = Loading
	t.entries = nil
	t.distances = nil
	t.azimuths = nil
	t.byCell = nil
}

// AddCoefficients records one measured cell. Only legal in {Loading}.
func (t *Table) AddCoefficients(e Entry) error {
	if t.state != Loading {
		return fmt.Errorf("sos: AddCoefficients only allowed during setup")
	}
	t.entries = append(t.entries, e)
	return nil
}

// EndSetup indexes the loaded entries by (distance, azimuth) cell and
// transitions {Loading} -> {Ready}.
func (t *Table) EndSetup() error {
	if t.state != Loading {
		return fmt.Errorf("sos: EndSetup only allowed after BeginSetup")
	}
	if len(t.entries) == 0 {
		return fmt.Errorf("sos: cannot finish setup with an empty table")
	}

	distSet := map[float64]bool{}
	azSet := map[float64]bool{}
	t.byCell = make(map[cellKey]Entry, len(t.entries))
	for _, e := range t.entries {
		distSet[e.Distance] = true
		azSet[e.InterauralAzimuth] = true
		t.byCell[cellKey{e.Distance, e.InterauralAzimuth}] = e
	}

	t.distances = sortedKeys(distSet)
	t.azimuths = sortedKeys(azSet)
	t.state = Ready
	return nil
}

func sortedKeys(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// bracket returns the indices of the two grid values in sorted that
// bracket v (clamped at the ends), and the fractional position t in
// [0,1] between them.
func bracket(sorted []float64, v float64) (lo, hi int, t float64) {
	if len(sorted) == 1 {
		return 0, 0, 0
	}
	if v <= sorted[0] {
		return 0, 1, 0
	}
	if v >= sorted[len(sorted)-1] {
		last := len(sorted) - 1
		return last - 1, last, 1
	}
	for i := 1; i < len(sorted); i++ {
		if v <= sorted[i] {
			lo, hi = i-1, i
			span := sorted[hi] - sorted[lo]
			if span == 0 {
				t = 0
			} else {
				t = (v - sorted[lo]) / span
			}
			return lo, hi, t
		}
	}
	return 0, 0, 0
}

func lerpCoeffs(a, b mathutil.BiquadCoeffs, t float64) mathutil.BiquadCoeffs {
	return mathutil.BiquadCoeffs{
		B0: a.B0 + t*(b.B0-a.B0),
		B1: a.B1 + t*(b.B1-a.B1),
		B2: a.B2 + t*(b.B2-a.B2),
		A0: a.A0 + t*(b.A0-a.A0),
		A1: a.A1 + t*(b.A1-a.A1),
		A2: a.A2 + t*(b.A2-a.A2),
	}
}

// GetCoefficients returns the near-field cascade coefficients for one
// ear at (distance, interauralAzimuth), bilinearly interpolated across
// the table's distance and azimuth bins. Beyond nearFieldLimit it
// returns the identity cascade (spec.md §4.4 "near-field filtering is
// bypassed for sources beyond the 1.95 m reference distance").
func (t *Table) GetCoefficients(ear int, distance, interauralAzimuth float64) (stage0, stage1 mathutil.BiquadCoeffs, err error) {
	if t.state != Ready {
		return mathutil.BiquadCoeffs{}, mathutil.BiquadCoeffs{}, fmt.Errorf("sos: query only allowed when Ready")
	}
	if distance >= t.nearFieldLimit {
		return mathutil.IdentityBiquad, mathutil.IdentityBiquad, nil
	}

	dLo, dHi, dt := bracket(t.distances, distance)
	aLo, aHi, at := bracket(t.azimuths, interauralAzimuth)

	pick := func(dIdx, aIdx int) Entry {
		return t.byCell[cellKey{t.distances[dIdx], t.azimuths[aIdx]}]
	}

	e00, e01 := pick(dLo, aLo), pick(dLo, aHi)
	e10, e11 := pick(dHi, aLo), pick(dHi, aHi)

	s0 := func(e Entry) mathutil.BiquadCoeffs {
		if ear == 0 {
			return e.Left0
		}
		return e.Right0
	}
	s1 := func(e Entry) mathutil.BiquadCoeffs {
		if ear == 0 {
			return e.Left1
		}
		return e.Right1
	}

	top0 := lerpCoeffs(s0(e00), s0(e01), at)
	bot0 := lerpCoeffs(s0(e10), s0(e11), at)
	stage0 = lerpCoeffs(top0, bot0, dt)

	top1 := lerpCoeffs(s1(e00), s1(e01), at)
	bot1 := lerpCoeffs(s1(e10), s1(e11), at)
	stage1 = lerpCoeffs(top1, bot1, dt)

	return stage0, stage1, nil
}

// State reports the table's current lifecycle state.
func (t *Table) State() State { return t.state }
