package environment

import (
	"testing"

	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/GrupoDiana/brt/internal/source"
	"github.com/stretchr/testify/require"
)

func TestAttenuationGainIsUnityAtReferenceDistance(t *testing.T) {
	cfg := config.Default()
	p := NewProcessor(cfg)
	require.InDelta(t, 1.0, p.attenuationGain(cfg.ReferenceDistance), 1e-9)
	require.InDelta(t, 1.0, p.attenuationGain(cfg.ReferenceDistance/2), 1e-9)
}

func TestAttenuationGainHalvesEveryDoublingAtMinus6dB(t *testing.T) {
	cfg := config.Default()
	p := NewProcessor(cfg)
	gain := p.attenuationGain(cfg.ReferenceDistance * 2)
	require.InDelta(t, 0.5, gain, 0.01)
}

func TestProcessSilencesSourcesBeyondMaxPropagationDistance(t *testing.T) {
	cfg := config.Default()
	p := NewProcessor(cfg)
	frame := source.Frame{Samples: mathutil.Buffer{1, 1, 1, 1}, Transform: mathutil.Identity}
	out := p.Process(frame, cfg.MaxPropagationDistance+1)
	require.True(t, out.Samples.IsSilent())
}

func TestProcessCloseSourceKeepsBlockLength(t *testing.T) {
	cfg := config.Default()
	p := NewProcessor(cfg)
	frame := source.Frame{Samples: make(mathutil.Buffer, 512), Transform: mathutil.Identity}
	frame.Samples[0] = 1
	out := p.Process(frame, 2.0)
	require.Equal(t, 512, len(out.Samples))
}

func TestResetDecaysToSilence(t *testing.T) {
	cfg := config.Default()
	p := NewProcessor(cfg)
	frame := source.Frame{Samples: make(mathutil.Buffer, 64), Transform: mathutil.Identity}
	frame.Samples[0] = 1
	p.Process(frame, 2.0)
	p.Reset()

	silent := source.Frame{Samples: make(mathutil.Buffer, 64), Transform: mathutil.Identity}
	out := p.Process(silent, 2.0)
	require.True(t, out.Samples.IsSilent())
}
