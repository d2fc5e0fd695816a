package mathutil

// BiquadCoeffs is a single transposed direct-form-II biquad section's
// six coefficients, normalised so a0 = 1 (the SOS table stores a0 too,
// for bit-for-bit fidelity with the source data, but Step divides
// it out).
type BiquadCoeffs struct {
	B0, B1, B2 float64
	A0, A1, A2 float64
}

// IdentityBiquad passes its input through unchanged, used as the
// near-field bypass coefficient set beyond the 1.95 m limit (spec.md §4.4).
var IdentityBiquad = BiquadCoeffs{B0: 1, A0: 1}

// Biquad is a single transposed direct-form-II biquad filter section
// with persistent state.
type Biquad struct {
	c      BiquadCoeffs
	z1, z2 float64
}

// SetCoeffs installs new coefficients without resetting state, so a
// coefficient change (e.g. a new SOS lookup) doesn't click.
func (f *Biquad) SetCoeffs(c BiquadCoeffs) {
	f.c = c
}

// Reset zeroes the filter's internal state.
func (f *Biquad) Reset() {
	f.z1, f.z2 = 0, 0
}

// Step filters a single sample.
func (f *Biquad) Step(x float64) float64 {
	a0 := f.c.A0
	if a0 == 0 {
		a0 = 1
	}
	y := (f.c.B0*x + f.z1) / a0
	f.z1 = f.c.B1*x - f.c.A1*y + f.z2
	f.z2 = f.c.B2*x - f.c.A2*y
	return y
}

// Cascade is a two-stage biquad cascade, matching the SOS table's 12
// coefficients per ear (two stages × 6 coeffs, spec.md §3/§4.4).
type Cascade struct {
	stages [2]Biquad
}

// NewCascade builds a Cascade from the 12 stored coefficients, stage
// order matching storage order (stage 0 first, then stage 1).
func NewCascade(stage0, stage1 BiquadCoeffs) *Cascade {
	c := &Cascade{}
	c.stages[0].SetCoeffs(stage0)
	c.stages[1].SetCoeffs(stage1)
	return c
}

// SetCoeffs updates both stages in place (no state reset).
func (c *Cascade) SetCoeffs(stage0, stage1 BiquadCoeffs) {
	c.stages[0].SetCoeffs(stage0)
	c.stages[1].SetCoeffs(stage1)
}

// Reset zeroes both stages' state.
func (c *Cascade) Reset() {
	c.stages[0].Reset()
	c.stages[1].Reset()
}

// ProcessInPlace filters buf through both stages in series, in place.
func (c *Cascade) ProcessInPlace(buf Buffer) {
	for i, x := range buf {
		buf[i] = c.stages[1].Step(c.stages[0].Step(x))
	}
}
