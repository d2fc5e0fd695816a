// Package listener implements the bilateral ambisonic listener from
// spec.md §4.5.3-§4.5.5: per-ear encoding of every active source into
// a shared ambisonic bus, one partitioned convolution per ambisonic
// channel per ear against the derived BIR (decoupling convolution cost
// from source count), and the final stereo mix.
package listener

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/GrupoDiana/brt/internal/ambisonic"
	"github.com/GrupoDiana/brt/internal/config"
	"github.com/GrupoDiana/brt/internal/conv"
	"github.com/GrupoDiana/brt/internal/environment"
	"github.com/GrupoDiana/brt/internal/graph"
	"github.com/GrupoDiana/brt/internal/hrtf"
	"github.com/GrupoDiana/brt/internal/mathutil"
	"github.com/GrupoDiana/brt/internal/sos"
)

// sourceState is the per-source, per-ear processing state that must
// persist across frames: the ITD delay line (so the lagging ear's
// delayed samples carry over block boundaries) and the near-field SOS
// cascade for each ear.
type sourceState struct {
	itdDelay          *environment.DelayLine
	leftSOS, rightSOS *mathutil.Cascade
}

// Node is one bilateral ambisonic listener.
type Node struct {
	id        string
	cfg       config.GlobalConfig
	transform mathutil.Transform
	cranial   config.CranialGeometry
	norm      ambisonic.Normalization

	hrtfSvc  *hrtf.Service
	sosTable *sos.Table
	bir      *ambisonic.BIR

	channels int
	busLeft  []mathutil.Buffer // per ambisonic channel
	busRight []mathutil.Buffer

	convLeft  []*conv.Engine // per ambisonic channel
	convRight []*conv.Engine

	sources map[string]*sourceState

	meter *RMSMeter

	Gain float64

	// spatializationEnabled, nearFieldProcessorEnabled, and
	// nearFieldEffectEnabled are the three listener-targeted toggles
	// from spec.md §6's minimum schema, all default on.
	spatializationEnabled     bool
	nearFieldProcessorEnabled bool
	nearFieldEffectEnabled    bool
}

// NewNode builds a listener ready to mix once hrtfSvc/sosTable/bir are
// wired in via SetServices, which assigns them with plain field writes
// and no synchronisation. An empty id is replaced with a generated
// UUID.
func NewNode(id string, cfg config.GlobalConfig, cranial config.CranialGeometry) *Node {
	if id == "" {
		id = uuid.NewString()
	}
	return &Node{
		id:                        id,
		cfg:                       cfg,
		transform:                 mathutil.Identity,
		cranial:                   cranial,
		norm:                      ambisonic.N3D,
		sources:                   make(map[string]*sourceState),
		meter:                     NewRMSMeter(),
		Gain:                      1,
		spatializationEnabled:     true,
		nearFieldProcessorEnabled: true,
		nearFieldEffectEnabled:    true,
	}
}

// ID implements graph.Node.
func (n *Node) ID() string { return n.id }

// SetTransform updates the listener's world pose.
func (n *Node) SetTransform(t mathutil.Transform) { n.transform = t }

// Transform returns the listener's current world pose.
func (n *Node) Transform() mathutil.Transform { return n.transform }

// SetServices installs the HRTF service, near-field SOS table, and
// derived ambisonic BIR this listener renders against, allocating the
// per-channel convolution engines and bus buffers sized to bir's
// channel count.
func (n *Node) SetServices(hrtfSvc *hrtf.Service, sosTable *sos.Table, bir *ambisonic.BIR) error {
	n.hrtfSvc = hrtfSvc
	n.sosTable = sosTable
	n.bir = bir
	n.channels = bir.ChannelCount

	n.busLeft = make([]mathutil.Buffer, n.channels)
	n.busRight = make([]mathutil.Buffer, n.channels)
	n.convLeft = make([]*conv.Engine, n.channels)
	n.convRight = make([]*conv.Engine, n.channels)

	for c := 0; c < n.channels; c++ {
		n.busLeft[c] = mathutil.NewBuffer(n.cfg.BlockSize)
		n.busRight[c] = mathutil.NewBuffer(n.cfg.BlockSize)

		leftEngine, err := conv.NewEngine(n.cfg.BlockSize, bir.Left[c].NumPartitions())
		if err != nil {
			return fmt.Errorf("listener: left channel %d engine: %w", c, err)
		}
		rightEngine, err := conv.NewEngine(n.cfg.BlockSize, bir.Right[c].NumPartitions())
		if err != nil {
			return fmt.Errorf("listener: right channel %d engine: %w", c, err)
		}
		n.convLeft[c] = leftEngine
		n.convRight[c] = rightEngine
	}
	return nil
}

// BeginFrame clears the ambisonic bus ahead of this frame's
// AddSourceContribution calls.
func (n *Node) BeginFrame() {
	for c := 0; c < n.channels; c++ {
		n.busLeft[c].Clear()
		n.busRight[c].Clear()
	}
}

func (n *Node) earTransform(offsetAlongInterauralAxis float64) mathutil.Transform {
	var local mathutil.Vector
	switch n.cranial.InterauralAxis {
	case 0:
		local = mathutil.Vector{X: offsetAlongInterauralAxis}
	case 2:
		local = mathutil.Vector{Z: offsetAlongInterauralAxis}
	default:
		local = mathutil.Vector{Y: offsetAlongInterauralAxis}
	}
	worldOffset := n.transform.Orientation.Rotate(local)
	return n.transform.Translated(worldOffset)
}

func (n *Node) stateFor(sourceID string) *sourceState {
	st, ok := n.sources[sourceID]
	if ok {
		return st
	}
	st = &sourceState{
		itdDelay:  environment.NewDelayLine(256),
		leftSOS:   mathutil.NewCascade(mathutil.IdentityBiquad, mathutil.IdentityBiquad),
		rightSOS:  mathutil.NewCascade(mathutil.IdentityBiquad, mathutil.IdentityBiquad),
	}
	n.sources[sourceID] = st
	return st
}

// AddSourceContribution encodes one source's environment-processed
// output into the listener's ambisonic bus: per-ear parallax-corrected
// direction, ITD as a whole-sample delay on the lagging ear (the
// signal is not expanded or compressed), near-field
// SOS cascade, then spherical-harmonic encoding into every channel
// (spec.md §4.5.3).
func (n *Node) AddSourceContribution(sourceID string, out environment.Output) error {
	if n.hrtfSvc == nil || n.sosTable == nil {
		return fmt.Errorf("listener: AddSourceContribution before SetServices")
	}
	if !n.spatializationEnabled {
		// original_source/ListenerModelBase.hpp declares
		// EnableSpatialization/DisableSpatialization/IsSpatializationEnabled
		// as empty virtual stubs with no base-class behaviour of their
		// own; the safe reading is that a disabled listener renders
		// nothing for this source rather than guessing at an unspecified
		// bypass mix.
		return nil
	}
	st := n.stateFor(sourceID)

	halfSep := n.cranial.EarSeparation / 2
	leftEarT := n.earTransform(-halfSep)
	rightEarT := n.earTransform(halfSep)

	leftAz, leftEl := leftEarT.AzimuthElevation(out.Transform)
	rightAz, rightEl := rightEarT.AzimuthElevation(out.Transform)
	distance := n.transform.Distance(out.Transform)
	interauralAz := n.transform.InterauralAzimuth(out.Transform)

	itd, err := n.hrtfSvc.ITD(leftAz, leftEl)
	if err != nil {
		return nil // missing HRTF service: contribute silence, spec.md §4.7
	}

	leftMono := mathutil.NewBuffer(len(out.Samples))
	rightMono := mathutil.NewBuffer(len(out.Samples))
	leftMono.CopyFrom(out.Samples)
	rightMono.CopyFrom(out.Samples)

	applyITD(st.itdDelay, leftMono, rightMono, itd)

	if n.nearFieldProcessorEnabled && n.nearFieldEffectEnabled {
		leftStage0, leftStage1, err := n.sosTable.GetCoefficients(0, distance, interauralAz)
		if err == nil {
			st.leftSOS.SetCoeffs(leftStage0, leftStage1)
			st.leftSOS.ProcessInPlace(leftMono)
		}
		rightStage0, rightStage1, err := n.sosTable.GetCoefficients(1, distance, interauralAz)
		if err == nil {
			st.rightSOS.SetCoeffs(rightStage0, rightStage1)
			st.rightSOS.ProcessInPlace(rightMono)
		}
	}

	leftGains, err := ambisonic.Encode(n.bir.Order, leftAz, leftEl, n.norm)
	if err != nil {
		return err
	}
	rightGains, err := ambisonic.Encode(n.bir.Order, rightAz, rightEl, n.norm)
	if err != nil {
		return err
	}

	for c := 0; c < n.channels; c++ {
		leftMono.MixInto(n.busLeft[c], leftGains[c])
		rightMono.MixInto(n.busRight[c], rightGains[c])
	}
	return nil
}

// applyITD delays whichever ear is farther (positive itd = left later
// than right by itd samples) by |itd| whole samples through the
// source's persistent delay line; the leading ear is left as it is.
// Neither ear is resampled: there is no expansion or compression.
func applyITD(d *environment.DelayLine, left, right mathutil.Buffer, itd int) {
	if itd == 0 {
		return
	}
	delaySamples := float64(itd)
	if delaySamples < 0 {
		delaySamples = -delaySamples
	}
	target := left
	if itd < 0 {
		target = right
	}
	for i, x := range target {
		target[i] = d.Step(x, delaySamples)
	}
}

// EndFrame runs the per-channel partitioned convolution against the
// ambisonic BIR, sums and normalises by channel count, applies the
// listener gain, and feeds the RMS meter (spec.md §4.5.4-§4.5.5).
func (n *Node) EndFrame() (mathutil.Buffer, mathutil.Buffer, error) {
	leftOut := mathutil.NewBuffer(n.cfg.BlockSize)
	rightOut := mathutil.NewBuffer(n.cfg.BlockSize)

	scratch := mathutil.NewBuffer(n.cfg.BlockSize)
	for c := 0; c < n.channels; c++ {
		if err := n.convLeft[c].Process(n.bir.Left[c], n.busLeft[c], scratch); err != nil {
			return nil, nil, fmt.Errorf("listener: left channel %d convolution: %w", c, err)
		}
		scratch.MixInto(leftOut, 1)

		if err := n.convRight[c].Process(n.bir.Right[c], n.busRight[c], scratch); err != nil {
			return nil, nil, fmt.Errorf("listener: right channel %d convolution: %w", c, err)
		}
		scratch.MixInto(rightOut, 1)
	}

	norm := 1.0 / float64(n.channels)
	leftOut.Gain(norm * n.Gain)
	rightOut.Gain(norm * n.Gain)

	n.meter.Update(leftOut, rightOut)
	return leftOut, rightOut, nil
}

// RMSMeterValue returns the listener's most recent per-ear RMS levels,
// the supplemented diagnostic from original_source/'s level metering.
func (n *Node) RMSMeterValue() (left, right float64) {
	return n.meter.Left(), n.meter.Right()
}

// Reset clears every per-source ITD/SOS state and convolution history,
// so the next frame of silent input decays to exact silence (spec.md
// §8 "Silent decay").
func (n *Node) Reset() {
	for _, st := range n.sources {
		st.itdDelay.Reset()
		st.leftSOS.Reset()
		st.rightSOS.Reset()
	}
	for c := 0; c < n.channels; c++ {
		n.convLeft[c].Reset()
		n.convRight[c].Reset()
	}
	n.meter.Reset()
}

// ResetSource clears one source's ITD delay line and near-field SOS
// cascades, leaving every other source and the shared convolution
// history untouched (original_source/BilateralAmbisonicEncoderProcessor.hpp's
// ResetBuffers() is scoped to the single source-listener pair it
// serves, not the whole listener).
func (n *Node) ResetSource(sourceID string) {
	st, ok := n.sources[sourceID]
	if !ok {
		return
	}
	st.itdDelay.Reset()
	st.leftSOS.Reset()
	st.rightSOS.Reset()
}

// HandleCommand implements graph.CommandReceiver, dispatching the
// three listener-targeted toggles from spec.md §6's minimum schema and
// the per-source reset a listener must honour for any source it is
// tracking state for.
func (n *Node) HandleCommand(cmd graph.Command) {
	if cmd.Name == "/source/resetBuffers" {
		n.ResetSource(cmd.SourceID)
		return
	}
	if cmd.ListenerID != "" && cmd.ListenerID != n.id {
		return
	}
	switch cmd.Name {
	case "/listener/enableSpatialization":
		if enable, ok := cmd.Bool("enable"); ok {
			n.spatializationEnabled = enable
		}
	case "/nearFieldProcessor/enable":
		if enable, ok := cmd.Bool("enable"); ok {
			n.nearFieldProcessorEnabled = enable
		}
	case "/bilateralAmbisonicsEncoder/enableNearFieldEffect":
		if enable, ok := cmd.Bool("enable"); ok {
			n.nearFieldEffectEnabled = enable
		}
	}
}
