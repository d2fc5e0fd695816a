// Package hostio declares the boundary interfaces a host application
// implements to feed the toolbox real HRTF data and real audio I/O
// (spec.md §1 "Non-goals": "SOFA file parsing and physical audio
// device I/O are out of scope; the toolbox only defines the interfaces
// a host must satisfy").
package hostio

import (
	"github.com/go-audio/audio"

	"github.com/GrupoDiana/brt/internal/mathutil"
)

// SOFADataset is the minimal slice of a SOFA file's SimpleFreeFieldHRIR
// convention a host must expose (spec.md §6): the sampling rate the
// IRs were measured at, one source position per measurement, and the
// IR data itself, source-major then receiver then sample.
type SOFADataset interface {
	// DataSamplingRate is the "Data.SamplingRate" SOFA attribute, Hz.
	DataSamplingRate() float64
	// SourcePosition returns the measured (azimuth, elevation, radius)
	// of measurement i, the "SourcePosition" SOFA variable.
	SourcePosition(i int) (azimuth, elevation, radius float64)
	// NumMeasurements is the SOFA "M" dimension.
	NumMeasurements() int
	// IR returns the (left, right) impulse response for measurement i,
	// the "Data.IR" SOFA variable sliced by receiver.
	IR(i int) (left, right []float64)
}

// SOFAReader loads a SOFADataset from a host-specific source (file
// path, embedded resource, network fetch); the toolbox never opens a
// SOFA file itself.
type SOFAReader interface {
	ReadSOFA(path string) (SOFADataset, error)
}

// AudioHost is the physical audio I/O boundary: it owns the device or
// file stream and trades fixed-size blocks with the render graph once
// per Tick (spec.md §4.1 "Frame tick" is driven externally by whatever
// implements this).
type AudioHost interface {
	// PullInput fills dst with the next block captured/read for
	// sourceID, returning ok=false if no more input is available.
	PullInput(sourceID string, dst mathutil.Buffer) (ok bool)
	// PushOutput writes one block of rendered stereo output.
	PushOutput(left, right mathutil.Buffer) error
	// Format reports the go-audio format (channel count, sample rate,
	// bit depth) the host is configured for.
	Format() *audio.Format
}

// FloatBufferToMono copies the first channel of a go-audio float
// buffer into a mathutil.Buffer, the conversion a PullInput
// implementation built on github.com/go-audio/audio typically needs.
func FloatBufferToMono(src *audio.FloatBuffer, dst mathutil.Buffer) {
	n := len(dst)
	channels := src.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	for i := 0; i < n; i++ {
		idx := i * channels
		if idx >= len(src.Data) {
			dst[i] = 0
			continue
		}
		dst[i] = src.Data[idx]
	}
}
