package environment

import (
	"math"

	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/GrupoDiana/brt/internal/source"
)

// Processor is the free-field path between one source and the
// listener: propagation delay (step 1), inverse-square distance
// attenuation (step 2), and publication of the source's
// time-coherent, delay-compensated transform (step 3), per
// spec.md §4.5.2.
type Processor struct {
	cfg config.GlobalConfig

	delay               *DelayLine
	delaySmooth         float64 // per-sample EMA coefficient for delay ramp
	gainSmooth          float64 // per-sample EMA coefficient for gain ramp
	currentDelaySamples float64
	currentGain         float64

	transformHistory []mathutil.Transform
	historyCursor    int
}

// Output is what a Processor publishes once per frame: the
// attenuated, propagation-delayed samples and the transform the
// source had at the moment those samples left it (spec.md §4.5.2 step
// 3 "effective time-coherent source transform").
type Output struct {
	Samples   mathutil.Buffer
	Transform mathutil.Transform
}

// NewProcessor builds a Processor sized for cfg's sample rate and
// maximum propagation distance.
func NewProcessor(cfg config.GlobalConfig) *Processor {
	maxDelaySamples := int(cfg.MaxPropagationDistance/cfg.SoundSpeed*float64(cfg.SampleRate)) + 1
	historyLen := maxDelaySamples/cfg.BlockSize + 2
	if historyLen < 1 {
		historyLen = 1
	}

	return &Processor{
		cfg:              cfg,
		delay:            NewDelayLine(maxDelaySamples),
		delaySmooth:      smoothingCoefficient(cfg.DelaySmoothingMS, float64(cfg.SampleRate)),
		gainSmooth:       smoothingCoefficient(cfg.AttenuationSmoothingMS, float64(cfg.SampleRate)),
		currentGain:      1,
		transformHistory: make([]mathutil.Transform, historyLen),
	}
}

func smoothingCoefficient(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 1
	}
	samples := ms / 1000 * sampleRate
	if samples < 1 {
		return 1
	}
	return 1 / samples
}

// attenuationGain implements the inverse-square law in dB-per-doubling
// form: 0 dB at or inside referenceDistance, attenuationDBPerDoubling
// decibels for every doubling of distance beyond it.
func (p *Processor) attenuationGain(distance float64) float64 {
	if distance <= p.cfg.ReferenceDistance {
		return 1
	}
	doublings := math.Log2(distance / p.cfg.ReferenceDistance)
	db := p.cfg.AttenuationDBPerDoubling * doublings
	return math.Pow(10, db/20)
}

// Reset clears the delay line, transform history, and ramp state.
func (p *Processor) Reset() {
	p.delay.Reset()
	p.currentDelaySamples = 0
	p.currentGain = 1
	for i := range p.transformHistory {
		p.transformHistory[i] = mathutil.Identity
	}
	p.historyCursor = 0
}

// Process advances one block: frame carries the source's current
// samples and transform; distance is the source-to-listener distance
// this frame (computed by the caller from frame.Transform and the
// listener's transform). Beyond cfg.MaxPropagationDistance the source
// is silenced entirely rather than risk a delay line overrun.
func (p *Processor) Process(frame source.Frame, distance float64) Output {
	p.transformHistory[p.historyCursor] = frame.Transform
	blockIndex := p.historyCursor
	p.historyCursor = (p.historyCursor + 1) % len(p.transformHistory)

	out := mathutil.NewBuffer(len(frame.Samples))
	if distance > p.cfg.MaxPropagationDistance {
		return Output{Samples: out, Transform: frame.Transform}
	}

	targetDelay := distance / p.cfg.SoundSpeed * float64(p.cfg.SampleRate)
	targetGain := p.attenuationGain(distance)

	maxDelay := float64(len(p.delay.buf) - 2)
	if targetDelay > maxDelay {
		targetDelay = maxDelay
	}

	for i, x := range frame.Samples {
		p.currentDelaySamples += (targetDelay - p.currentDelaySamples) * p.delaySmooth
		p.currentGain += (targetGain - p.currentGain) * p.gainSmooth
		delayed := p.delay.Step(x, p.currentDelaySamples)
		out[i] = delayed * p.currentGain
	}

	delayBlocks := int(p.currentDelaySamples/float64(len(out)) + 0.5)
	historyIdx := ((blockIndex-delayBlocks)%len(p.transformHistory) + len(p.transformHistory)) % len(p.transformHistory)

	return Output{Samples: out, Transform: p.transformHistory[historyIdx]}
}
