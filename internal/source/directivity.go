package source

import (
	"fmt"

	"github.com/GrupoDiana/brt/internal/conv"
	"github.com/GrupoDiana/brt/internal/mathutil"
)

// DirectivityFilter is a single-channel partitioned-convolution filter
// applied to a source's samples before publication, modelling a
// frequency-dependent radiation pattern (spec.md's Directional source
// kind, supplemented from original_source/: the original ships
// directivity transfer functions per instrument/voice type that the
// distilled spec.md only names in passing).
type DirectivityFilter struct {
	filt   *conv.Filter
	engine *conv.Engine
}

// NewDirectivityFilter partitions ir at blockSize and builds the
// engine to convolve against it.
func NewDirectivityFilter(ir []float64, blockSize int) (*DirectivityFilter, error) {
	filt, err := conv.PartitionFilter(ir, blockSize)
	if err != nil {
		return nil, fmt.Errorf("source: partitioning directivity filter: %w", err)
	}
	engine, err := conv.NewEngine(blockSize, filt.NumPartitions())
	if err != nil {
		return nil, fmt.Errorf("source: directivity engine: %w", err)
	}
	return &DirectivityFilter{filt: filt, engine: engine}, nil
}

// Process convolves in against the directivity response, writing to
// out (in and out may alias).
func (d *DirectivityFilter) Process(in, out mathutil.Buffer) error {
	return d.engine.Process(d.filt, in, out)
}

// Reset zeroes the filter's convolution history.
func (d *DirectivityFilter) Reset() {
	d.engine.Reset()
}
