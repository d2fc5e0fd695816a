package listener

import "github.com/GrupoDiana/brt/internal/mathutil"

// RMSMeter tracks the most recent per-ear RMS level of a listener's
// output, a supplemented diagnostic (original_source/'s level metering
// utilities, which spec.md's distillation omits but which any host
// integration needs for clipping/gain-staging feedback).
type RMSMeter struct {
	left, right float64
}

// NewRMSMeter returns a meter reading zero on both ears.
func NewRMSMeter() *RMSMeter {
	return &RMSMeter{}
}

// Update recomputes the meter from one block of stereo output.
func (m *RMSMeter) Update(left, right mathutil.Buffer) {
	m.left = left.RMS()
	m.right = right.RMS()
}

// Left returns the most recent left-ear RMS level.
func (m *RMSMeter) Left() float64 { return m.left }

// Right returns the most recent right-ear RMS level.
func (m *RMSMeter) Right() float64 { return m.right }

// Reset zeroes both channels' levels.
func (m *RMSMeter) Reset() {
	m.left, m.right = 0, 0
}
