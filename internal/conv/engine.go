// Package conv implements the uniformly partitioned, frequency-domain
// convolution engine from spec.md §4.2: a persistent history of
// input-block spectra is multiply-accumulated against a filter's
// pre-transformed partitions, with real-FFT forward/inverse via
// github.com/cwbudde/algo-fft.
package conv

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// Filter is a filter's partitioned, frequency-domain representation:
// P blocks (ceil(L/B)), each a length-(B+1) real-FFT spectrum of a
// zero-padded 2B partition (spec.md §3 "Partitioned HRIR record",
// generalised to any partitioned impulse response: HRIR, ambisonic
// BIR, or directivity filter).
type Filter struct {
	BlockSize  int
	Partitions [][]complex128 // len == Partitions count, each len BlockSize+1
}

// PartitionFilter splits ir into ceil(len(ir)/blockSize) blocks of
// length blockSize, zero-pads each to 2*blockSize, and forward-FFTs
// it, per spec.md §4.2 "Setup" and §4.3 step 6.
func PartitionFilter(ir []float64, blockSize int) (*Filter, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("conv: block size must be positive, got %d", blockSize)
	}

	p := (len(ir) + blockSize - 1) / blockSize
	if p == 0 {
		p = 1
	}
	fftSize := 2 * blockSize

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: fft plan for size %d: %w", fftSize, err)
	}

	f := &Filter{BlockSize: blockSize, Partitions: make([][]complex128, p)}
	frame := make([]float64, fftSize)

	for i := 0; i < p; i++ {
		clear(frame)
		start := i * blockSize
		end := min(start+blockSize, len(ir))
		if start < len(ir) {
			copy(frame[:end-start], ir[start:end])
		}

		spectrum := make([]complex128, blockSize+1)
		if err := plan.Forward(spectrum, frame); err != nil {
			return nil, fmt.Errorf("conv: forward fft of partition %d: %w", i, err)
		}
		f.Partitions[i] = spectrum
	}

	return f, nil
}

// NumPartitions returns P, the number of partitions (spec.md §3
// invariant iv: history length == NumPartitions).
func (f *Filter) NumPartitions() int {
	if f == nil {
		return 0
	}
	return len(f.Partitions)
}

// Engine is one uniformly partitioned convolver instance. It owns its
// own spectral history (so many Engines may run concurrently against
// the same, read-only, shared Filter) and its own FFT plan.
type Engine struct {
	blockSize int
	plan      *algofft.PlanRealT[float64, complex128]

	history    [][]complex128 // ring of P spectra, each len blockSize+1
	cursor     int
	prevInput  []float64 // last blockSize input samples
	frame      []float64 // scratch 2*blockSize time-domain frame
	accum      []complex128
	timeDomain []float64 // scratch 2*blockSize inverse-FFT output
}

// NewEngine builds an Engine sized for partitionCount history slots of
// the given block size. partitionCount must equal the Filter's
// NumPartitions() the engine will later be asked to Process against.
func NewEngine(blockSize, partitionCount int) (*Engine, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("conv: block size must be positive, got %d", blockSize)
	}
	if partitionCount <= 0 {
		partitionCount = 1
	}
	fftSize := 2 * blockSize

	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: fft plan for size %d: %w", fftSize, err)
	}

	e := &Engine{
		blockSize:  blockSize,
		plan:       plan,
		history:    make([][]complex128, partitionCount),
		prevInput:  make([]float64, blockSize),
		frame:      make([]float64, fftSize),
		accum:      make([]complex128, blockSize+1),
		timeDomain: make([]float64, fftSize),
	}
	for i := range e.history {
		e.history[i] = make([]complex128, blockSize+1)
	}
	return e, nil
}

// Reset zeroes the spectral history and previous-input tail so that,
// on the next NumPartitions() frames of zero input, output decays to
// exact zero (spec.md §4.2 "Guarantees" and §8 "Silent decay").
func (e *Engine) Reset() {
	for _, h := range e.history {
		clear(h)
	}
	clear(e.prevInput)
	e.cursor = 0
}

// Process convolves one blockSize input block against filt and writes
// the blockSize output samples into out. filt must have the same
// NumPartitions() the Engine was constructed with.
func (e *Engine) Process(filt *Filter, in mathutil.Buffer, out mathutil.Buffer) error {
	if len(in) != e.blockSize || len(out) != e.blockSize {
		return fmt.Errorf("conv: buffer size mismatch: want %d, got in=%d out=%d", e.blockSize, len(in), len(out))
	}
	if filt.NumPartitions() != len(e.history) {
		return fmt.Errorf("conv: filter has %d partitions, engine sized for %d", filt.NumPartitions(), len(e.history))
	}

	copy(e.frame[:e.blockSize], e.prevInput)
	for i, v := range in {
		e.frame[e.blockSize+i] = v
	}
	copy(e.prevInput, in)

	newSpectrum := e.history[e.cursor]
	if err := e.plan.Forward(newSpectrum, e.frame); err != nil {
		return fmt.Errorf("conv: forward fft: %w", err)
	}

	clear(e.accum)
	p := len(e.history)
	for i := 0; i < p; i++ {
		histIdx := ((e.cursor-i)%p + p) % p
		h := e.history[histIdx]
		k := filt.Partitions[i]
		for b := range e.accum {
			e.accum[b] += h[b] * k[b]
		}
	}
	e.cursor = (e.cursor + 1) % p

	if err := e.plan.Inverse(e.timeDomain, e.accum); err != nil {
		return fmt.Errorf("conv: inverse fft: %w", err)
	}
	copy(out, e.timeDomain[e.blockSize:])
	return nil
}
