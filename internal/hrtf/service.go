package hrtf

import (
	"fmt"
	"math"

	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/conv"
	"github.com/GrupoDiana/brt/internal/mathutil"
)

// Service is the HRTF database: raw measurements go in via
// BeginSetup/AddHRIR, EndSetup resamples them onto a quasi-uniform
// grid, windows, extracts ITD, and partitions every grid IR for
// overlap-save convolution (spec.md §4.3, §4.6 state machine).
type Service struct {
	state State

	irLength  int
	method    ExtrapolationMethod
	blockSize int

	raw []RawEntry

	gridCfg    GridConfig
	window     config.Window
	sampleRate int

	grid        *Grid
	partitioned map[mathutil.OrientationKey]PartitionedHRIR
}

// NewService returns a Service in the {Empty} state, configured with
// the grid resolution and fade window the setup pipeline will use.
// sampleRate converts window's second-denominated thresholds to
// sample counts.
func NewService(gridCfg GridConfig, window config.Window, sampleRate int) *Service {
	return &Service{state: Empty, gridCfg: gridCfg, window: window, sampleRate: sampleRate}
}

// BeginSetup transitions {Empty}/{Ready} -> {Loading}, clearing any
// previously loaded database.
func (s *Service) BeginSetup(irLength int, method ExtrapolationMethod, blockSize int) {
	s.state = Loading
	s.irLength = irLength
	s.method = method
	s.blockSize = blockSize
	s.raw = nil
	s.grid = nil
	s.partitioned = nil
}

// AddHRIR records one measured orientation. Only legal in {Loading}.
func (s *Service) AddHRIR(az, el float64, h HRIR) error {
	if s.state != Loading {
		return fmt.Errorf("hrtf: AddHRIR only allowed during setup")
	}
	if h.Len() != s.irLength {
		return fmt.Errorf("hrtf: HRIR length %d does not match declared length %d", h.Len(), s.irLength)
	}
	s.raw = append(s.raw, RawEntry{Key: mathutil.NewOrientationKey(az, el), HRIR: h})
	return nil
}

// EndSetup runs the full resampling pipeline: extrapolate gaps onto
// the quasi-uniform grid, window every grid IR, record each ear's
// onset delay for the ITD, and partition for convolution. The IRs are
// not shifted: each keeps its leading delay. Transitions
// {Loading} -> {Ready}.
func (s *Service) EndSetup() error {
	if s.state != Loading {
		return fmt.Errorf("hrtf: EndSetup only allowed after BeginSetup")
	}
	if len(s.raw) == 0 {
		return fmt.Errorf("hrtf: cannot finish setup with an empty database")
	}

	keys, step := Grid(s.gridCfg)
	gaps := Extrapolate(s.raw, keys, s.method)

	byKey := make(map[mathutil.OrientationKey]HRIR, len(keys))
	rawByKey := make(map[mathutil.OrientationKey]HRIR, len(s.raw))
	for _, r := range s.raw {
		rawByKey[r.Key] = r.HRIR
	}
	for _, k := range keys {
		if h, ok := gaps[k]; ok {
			byKey[k] = h
			continue
		}
		if h, ok := rawByKey[k]; ok {
			byKey[k] = h
			continue
		}
		n, _ := nearest(s.raw, k)
		byKey[k] = n.HRIR
	}

	s.partitioned = make(map[mathutil.OrientationKey]PartitionedHRIR, len(keys))
	for _, k := range keys {
		h := byKey[k]
		Window(&h, s.window, s.sampleRate)
		leftDelay := onsetDelay(h.LeftIR)
		rightDelay := onsetDelay(h.RightIR)

		leftFilt, err := conv.PartitionFilter(h.LeftIR, s.blockSize)
		if err != nil {
			return fmt.Errorf("hrtf: partitioning left IR at %v: %w", k, err)
		}
		rightFilt, err := conv.PartitionFilter(h.RightIR, s.blockSize)
		if err != nil {
			return fmt.Errorf("hrtf: partitioning right IR at %v: %w", k, err)
		}

		byKey[k] = h
		s.partitioned[k] = PartitionedHRIR{
			Left:       leftFilt,
			Right:      rightFilt,
			LeftDelay:  leftDelay,
			RightDelay: rightDelay,
		}
	}

	s.grid = NewGrid(keys, step, byKey)
	s.state = Ready
	return nil
}

// onsetDelay estimates the number of leading samples before an IR's
// energy rises above 10% of its peak magnitude, the per-ear sample
// delay carried alongside the windowed-but-not-delay-compensated
// partitioned spectrum (spec.md §3 "ITD": "the whole-sample onset
// difference between ears is extracted once at load time rather than
// recomputed every frame").
func onsetDelay(ir []float64) int {
	peak := 0.0
	for _, v := range ir {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return 0
	}
	threshold := 0.1 * peak
	for i, v := range ir {
		if math.Abs(v) >= threshold {
			return i
		}
	}
	return 0
}

// State reports the service's current lifecycle state.
func (s *Service) State() State { return s.state }

// Grid exposes the resampled grid directly, for offline consumers that
// need every measured/extrapolated direction at once (the ambisonic
// BIR derivation in internal/ambisonic). Only meaningful when Ready.
func (s *Service) Grid() *Grid { return s.grid }

// GetHRIRPartitioned returns the partitioned HRIR for (az, el),
// optionally barycentrically interpolated across the grid rather than
// snapped to the nearest grid point. Only legal in {Ready}.
//
// Interpolation blends the three precomputed partitioned spectra
// bin-by-bin (spec.md §4.3's runtime query) rather than re-windowing
// and re-partitioning a time-domain blend: every stored partition was
// already windowed once in EndSetup, and windowing is not idempotent,
// so doing it again here would double-taper the result. A query that
// resolves to a single grid vertex reads s.partitioned straight
// through and is therefore bit-identical to the stored entry.
func (s *Service) GetHRIRPartitioned(az, el float64, interpolate bool) (PartitionedHRIR, error) {
	if s.state != Ready {
		return PartitionedHRIR{}, fmt.Errorf("hrtf: query only allowed when Ready")
	}
	if !interpolate {
		near := s.nearestGridKey(az, el)
		return s.partitioned[near], nil
	}

	keys, weights, ok := s.grid.BarycentricNeighbors(az, el)
	if !ok {
		return s.partitioned[keys[0]], nil
	}

	p0, p1, p2 := s.partitioned[keys[0]], s.partitioned[keys[1]], s.partitioned[keys[2]]
	return PartitionedHRIR{
		Left:  blendFilter(p0.Left, weights[0], p1.Left, weights[1], p2.Left, weights[2]),
		Right: blendFilter(p0.Right, weights[0], p1.Right, weights[1], p2.Right, weights[2]),
		LeftDelay: int(weights[0]*float64(p0.LeftDelay) +
			weights[1]*float64(p1.LeftDelay) +
			weights[2]*float64(p2.LeftDelay) + 0.5),
		RightDelay: int(weights[0]*float64(p0.RightDelay) +
			weights[1]*float64(p1.RightDelay) +
			weights[2]*float64(p2.RightDelay) + 0.5),
	}, nil
}

// blendFilter barycentrically combines three partitioned spectra of
// identical shape, bin by bin, real-valued weight per complex bin.
func blendFilter(a *conv.Filter, wa float64, b *conv.Filter, wb float64, c *conv.Filter, wc float64) *conv.Filter {
	out := &conv.Filter{BlockSize: a.BlockSize, Partitions: make([][]complex128, len(a.Partitions))}
	ca, cb, cc := complex(wa, 0), complex(wb, 0), complex(wc, 0)
	for i := range a.Partitions {
		bins := a.Partitions[i]
		row := make([]complex128, len(bins))
		for k := range bins {
			row[k] = ca*bins[k] + cb*b.Partitions[i][k] + cc*c.Partitions[i][k]
		}
		out.Partitions[i] = row
	}
	return out
}

// ITD returns the whole-sample interaural onset delay for the nearest
// grid orientation to (az, el): left-delay minus right-delay.
func (s *Service) ITD(az, el float64) (int, error) {
	if s.state != Ready {
		return 0, fmt.Errorf("hrtf: query only allowed when Ready")
	}
	near := s.nearestGridKey(az, el)
	p := s.partitioned[near]
	return p.LeftDelay - p.RightDelay, nil
}

func (s *Service) nearestGridKey(az, el float64) mathutil.OrientationKey {
	near := s.grid.nearestN(az, el, 1)
	if len(near) == 0 {
		return mathutil.NewOrientationKey(0, 0)
	}
	return near[0].key
}
