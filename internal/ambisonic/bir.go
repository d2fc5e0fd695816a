package ambisonic

import (
	"fmt"
	"math"

	"github.com/GrupoDiana/brt/internal/conv"
	"github.com/GrupoDiana/brt/internal/hrtf"
)

// BIR is an ambisonic-domain binaural impulse response: one partitioned
// filter per ACN channel, per ear, derived offline once from an HRTF
// service (spec.md §4.5.4 "Ambisonic BIR").
type BIR struct {
	Order        int
	ChannelCount int
	Left, Right  []*conv.Filter
}

// DeriveBIR encodes every direction in svc's resampled grid into the
// ambisonic basis and accumulates a weighted sum per channel, per ear
// (spec.md §4.5.4 step "offline ambisonic encoding of the HRTF
// database"). svc must be {Ready}. Each grid direction is treated as
// covering an equal fraction of the sphere's solid angle (a valid
// approximation on the quasi-uniform grid from internal/hrtf), so the
// per-direction weight is 4π/N.
func DeriveBIR(svc *hrtf.Service, order int, norm Normalization, blockSize int) (*BIR, error) {
	if svc.State() != hrtf.Ready {
		return nil, fmt.Errorf("ambisonic: DeriveBIR requires a Ready HRTF service")
	}
	grid := svc.Grid()
	keys := grid.Keys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("ambisonic: HRTF grid is empty")
	}

	channels := Channels(order)
	weight := 4 * math.Pi / float64(len(keys))

	first, _ := grid.HRIR(keys[0])
	irLen := first.Len()

	accumLeft := make([][]float64, channels)
	accumRight := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		accumLeft[c] = make([]float64, irLen)
		accumRight[c] = make([]float64, irLen)
	}

	for _, key := range keys {
		h, ok := grid.HRIR(key)
		if !ok {
			continue
		}
		gains, err := Encode(order, key.Azimuth(), key.Elevation(), norm)
		if err != nil {
			return nil, err
		}
		for c := 0; c < channels; c++ {
			g := gains[c] * weight
			for i := 0; i < irLen; i++ {
				accumLeft[c][i] += g * h.LeftIR[i]
				accumRight[c][i] += g * h.RightIR[i]
			}
		}
	}

	bir := &BIR{Order: order, ChannelCount: channels, Left: make([]*conv.Filter, channels), Right: make([]*conv.Filter, channels)}
	for c := 0; c < channels; c++ {
		leftFilt, err := conv.PartitionFilter(accumLeft[c], blockSize)
		if err != nil {
			return nil, fmt.Errorf("ambisonic: partitioning left channel %d: %w", c, err)
		}
		rightFilt, err := conv.PartitionFilter(accumRight[c], blockSize)
		if err != nil {
			return nil, fmt.Errorf("ambisonic: partitioning right channel %d: %w", c, err)
		}
		bir.Left[c] = leftFilt
		bir.Right[c] = rightFilt
	}
	return bir, nil
}
