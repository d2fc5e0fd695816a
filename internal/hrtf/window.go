package hrtf

import (
	"math"

	"github.com/GrupoDiana/brt/internal/config"
)

// Window applies a raised-cosine fade-in and fade-out to an HRIR in
// place (spec.md §4.3 step 4, the supplemented hrtf.Window component:
// the original trims leading/trailing silence from measured IRs with a
// smooth taper rather than a hard cut, avoiding audible clicks at
// partition boundaries). w's thresholds and rise times are in seconds;
// sampleRate converts them to sample counts.
func Window(h *HRIR, w config.Window, sampleRate int) {
	windowChannel(h.LeftIR, w, sampleRate)
	windowChannel(h.RightIR, w, sampleRate)
}

func windowChannel(buf []float64, w config.Window, sampleRate int) {
	n := len(buf)
	if n == 0 {
		return
	}
	sr := float64(sampleRate)

	fadeInStart := int(w.FadeInThreshold * sr)
	fadeInSamples := int(w.FadeInRise * sr)
	for i := 0; i < fadeInStart && i < n; i++ {
		buf[i] = 0
	}
	for i := 0; i < fadeInSamples && fadeInStart+i < n; i++ {
		idx := fadeInStart + i
		buf[idx] *= raisedCosine(float64(i) / float64(fadeInSamples))
	}

	fadeOutThresholdSamples := int(w.FadeOutThreshold * sr)
	fadeOutRiseSamples := int(w.FadeOutRise * sr)
	fadeOutEnd := n - fadeOutThresholdSamples
	for i := fadeOutEnd; i < n && i >= 0; i++ {
		buf[i] = 0
	}
	for i := 0; i < fadeOutRiseSamples; i++ {
		idx := fadeOutEnd - i - 1
		if idx < 0 || idx >= n {
			continue
		}
		buf[idx] *= raisedCosine(float64(i) / float64(fadeOutRiseSamples))
	}
}

// raisedCosine maps t in [0,1] (0 = edge of silence, 1 = full gain) to
// a smooth 0->1 ramp: 0.5*(1-cos(pi*t)).
func raisedCosine(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return 0.5 * (1 - math.Cos(math.Pi*t))
}
