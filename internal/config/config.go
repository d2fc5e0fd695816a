// Package config holds the explicit GlobalConfig value threaded into
// every service and processor at construction time, instead of a
// process-wide singleton (see spec.md §9 "Global state").
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AxisConvention fixes forward/right/up at build time, per spec.md §3.
type AxisConvention int

const (
	// AxisConventionFRU maps forward/right/up to +X/+Y/+Z.
	AxisConventionFRU AxisConvention = iota
)

// Window parameterises the fade-in/fade-out raised-cosine windows
// applied to grid HRIRs during HRTF setup (spec.md §4.3 step 4). The
// ambisonic BIR is derived from those windowed HRIRs and is not
// windowed again.
type Window struct {
	FadeInThreshold  float64 `yaml:"fadeInThreshold"`  // seconds
	FadeInRise       float64 `yaml:"fadeInRise"`       // seconds
	FadeOutThreshold float64 `yaml:"fadeOutThreshold"` // seconds
	FadeOutRise      float64 `yaml:"fadeOutRise"`      // seconds
}

// GlobalConfig is the single explicit configuration value the rest of
// the toolbox is built from.
type GlobalConfig struct {
	SampleRate int `yaml:"sampleRate"`
	BlockSize  int `yaml:"blockSize"`

	// AttenuationDBPerDoubling is αdB in spec.md §4.5.2; must be <= 0.
	AttenuationDBPerDoubling float64 `yaml:"attenuationDBPerDoubling"`
	// SoundSpeed in m/s; must be > 0.
	SoundSpeed float64 `yaml:"soundSpeed"`
	// ReferenceDistance d_ref in metres.
	ReferenceDistance float64 `yaml:"referenceDistance"`
	// HeadRadius in metres.
	HeadRadius float64 `yaml:"headRadius"`
	// NearFieldDistanceLimit is the distance (m) beyond which the SOS
	// near-field cascade is bypassed (spec.md §4.4).
	NearFieldDistanceLimit float64 `yaml:"nearFieldDistanceLimit"`
	// AmbisonicOrder N; channel count is (N+1)^2.
	AmbisonicOrder int `yaml:"ambisonicOrder"`
	// AttenuationSmoothingMS is the EMA ramp time for distance gain (spec.md §4.5.2).
	AttenuationSmoothingMS float64 `yaml:"attenuationSmoothingMs"`
	// DelaySmoothingMS is the waveguide target-delay ramp time (spec.md §4.5.2).
	DelaySmoothingMS float64 `yaml:"delaySmoothingMs"`
	// MaxPropagationDistance bounds the waveguide's delay-line capacity.
	MaxPropagationDistance float64 `yaml:"maxPropagationDistance"`

	Axis   AxisConvention `yaml:"-"`
	Window Window         `yaml:"window"`
}

// Default returns the toolbox's stock configuration: 44.1 kHz, 512
// sample blocks, inverse-square free-field attenuation, speed of sound
// in air, the 1.95 m reference/near-field boundary used throughout
// spec.md's worked examples, and third-order ambisonics.
func Default() GlobalConfig {
	return GlobalConfig{
		SampleRate:               44100,
		BlockSize:                512,
		AttenuationDBPerDoubling: -6.0206,
		SoundSpeed:               343.0,
		ReferenceDistance:        1.95,
		HeadRadius:               DefaultCranialGeometry().HeadRadius,
		NearFieldDistanceLimit:   1.95,
		AmbisonicOrder:           3,
		AttenuationSmoothingMS:   10.0,
		DelaySmoothingMS:         15.0,
		MaxPropagationDistance:   100.0,
		Axis:                     AxisConventionFRU,
		Window: Window{
			FadeInThreshold:  0.0,
			FadeInRise:       0.0005,
			FadeOutThreshold: 0.0,
			FadeOutRise:      0.0005,
		},
	}
}

// CranialGeometry carries the default head/ear measurements used when a
// listener does not override them, adapted from
// original_source/Common/CranicalGeometry.hpp.
type CranialGeometry struct {
	HeadRadius     float64 // metres
	EarSeparation  float64 // metres, centre-to-centre
	InterauralAxis int     // which local axis (0=x,1=y,2=z) separates the ears
}

// DefaultCranialGeometry returns the stock adult-head measurements.
func DefaultCranialGeometry() CranialGeometry {
	return CranialGeometry{
		HeadRadius:     0.0875,
		EarSeparation:  0.175,
		InterauralAxis: 1,
	}
}

// Validate enforces the setup-time invariants from spec.md §7 on the
// config's own fields (sample rate, block size, sound speed,
// attenuation, distances and the like), so an inconsistent config
// aborts setup rather than silently proceeding. The HRTF grid step is
// not part of GlobalConfig and is not checked here.
func (c GlobalConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("config: block size must be positive, got %d", c.BlockSize)
	}
	if c.SoundSpeed <= 0 {
		return fmt.Errorf("config: sound speed must be positive, got %g", c.SoundSpeed)
	}
	if c.AttenuationDBPerDoubling > 0 {
		return fmt.Errorf("config: attenuation dB/doubling must be <= 0, got %g", c.AttenuationDBPerDoubling)
	}
	if c.ReferenceDistance <= 0 {
		return fmt.Errorf("config: reference distance must be positive, got %g", c.ReferenceDistance)
	}
	if c.HeadRadius <= 0 {
		return fmt.Errorf("config: head radius must be positive, got %g", c.HeadRadius)
	}
	if c.AmbisonicOrder < 0 {
		return fmt.Errorf("config: ambisonic order must be >= 0, got %d", c.AmbisonicOrder)
	}
	return nil
}

// AmbisonicChannels returns (N+1)^2 for the configured order.
func (c GlobalConfig) AmbisonicChannels() int {
	n := c.AmbisonicOrder + 1
	return n * n
}

// Load reads a GlobalConfig from a YAML file, starting from Default()
// so unset fields keep their stock values, then validates the result.
func Load(path string) (GlobalConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return GlobalConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return GlobalConfig{}, err
	}
	return cfg, nil
}
