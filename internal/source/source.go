// Package source implements the render-graph source node from
// spec.md §3-§4.1: a named, positioned, per-frame audio producer that
// publishes its samples, transform, and identity to subscribed exit
// points once per Tick.
package source

import (
	"github.com/google/uuid"

	"github.com/GrupoDiana/brt/internal/graph"
	"github.com/GrupoDiana/brt/internal/mathutil"
)

// Kind distinguishes the three source flavours from spec.md §3
// "Source node": a plain monaural emitter, one with a directivity
// filter applied before publication, or a virtual source fed by an
// external room model (the supplemented SDN contract, see feed.go).
type Kind int

const (
	Simple Kind = iota
	Directional
	Virtual
)

// Frame is what a source publishes once per Tick: its current samples,
// its transform at the moment of publication, and its own ID so
// downstream environment/listener nodes can address commands back to
// it without a separate lookup.
type Frame struct {
	SourceID  string
	Transform mathutil.Transform
	Samples   mathutil.Buffer
}

// Node is one source in the render graph.
type Node struct {
	id        string
	kind      Kind
	transform mathutil.Transform

	input       mathutil.Buffer
	directivity *DirectivityFilter
	feed        VirtualSourceFeed

	Exit *graph.ExitPoint[Frame]
}

// NewNode returns a source Node of the given kind, with an identity
// transform and a Simple-sized zero input buffer. An empty id is
// replaced with a generated UUID (spec.md §3 "Source node": "every
// node has a stable identity used for addressing and diagnostics").
func NewNode(id string, kind Kind, blockSize int) *Node {
	if id == "" {
		id = uuid.NewString()
	}
	return &Node{
		id:        id,
		kind:      kind,
		transform: mathutil.Identity,
		input:     mathutil.NewBuffer(blockSize),
		Exit:      graph.NewExitPoint[Frame](id + ".samples"),
	}
}

// ID implements graph.Node.
func (n *Node) ID() string { return n.id }

// Kind reports the source's flavour.
func (n *Node) Kind() Kind { return n.kind }

// Transform reports the source's last-set world transform.
func (n *Node) Transform() mathutil.Transform { return n.transform }

// SetInput replaces the source's monaural input for the next Tick; the
// host audio I/O layer calls this once per frame before the manager
// drives Tick (spec.md §4.1 "Frame tick").
func (n *Node) SetInput(samples mathutil.Buffer) {
	mathutil.MustSameLength(n.input, samples)
	n.input.CopyFrom(samples)
}

// SetDirectivityFilter installs (or clears, with nil) a per-source
// directivity filter applied to samples before they are published
// (spec.md's Directional source kind).
func (n *Node) SetDirectivityFilter(f *DirectivityFilter) {
	n.directivity = f
}

// Tick publishes one Frame: the directivity filter (if any) is applied
// to the current input, then the result is sent downstream alongside
// the source's transform and ID (spec.md §4.1 "Scheduling model").
func (n *Node) Tick() {
	out := mathutil.NewBuffer(len(n.input))
	transform := n.transform

	if n.kind == Virtual && n.feed != nil {
		samples, fedTransform, ok := n.feed.NextBlock(len(n.input))
		if ok {
			out.CopyFrom(samples)
			transform = fedTransform
		}
	} else {
		out.CopyFrom(n.input)
	}

	if n.directivity != nil {
		if err := n.directivity.Process(out, out); err != nil {
			// A misconfigured directivity filter must not crash the
			// frame tick; publish silence instead (spec.md §4.7).
			out.Clear()
		}
	}

	n.transform = transform
	n.Exit.SendData(Frame{SourceID: n.id, Transform: transform, Samples: out})
}

// HandleCommand implements graph.CommandReceiver, dispatching the four
// source-targeted commands from spec.md §6's minimum schema.
func (n *Node) HandleCommand(cmd graph.Command) {
	if cmd.SourceID != "" && cmd.SourceID != n.id {
		return
	}
	switch cmd.Name {
	case "/source/location":
		if loc, ok := cmd.Vec3("location"); ok {
			n.transform = n.transform.WithPosition(mathutil.Vector{X: loc[0], Y: loc[1], Z: loc[2]})
		}
	case "/source/orientation":
		if ypr, ok := cmd.Vec3("orientation"); ok {
			n.transform = mathutil.NewTransform(n.transform.Position, ypr[0], ypr[1], ypr[2])
		}
	case "/source/orientationQuaternion":
		if xyzw, ok := cmd.Vec4("orientation"); ok {
			q := mathutil.Quaternion{X: xyzw[0], Y: xyzw[1], Z: xyzw[2], W: xyzw[3]}.Normalize()
			n.transform = n.transform.WithOrientation(q)
		}
	case "/source/resetBuffers":
		n.Reset()
	}
}

// Reset clears the source's input buffer and any directivity filter
// history, so a subsequent run of silent input publishes exact silence
// rather than the filter's decaying tail (the "/source/resetBuffers"
// command, spec.md §6).
func (n *Node) Reset() {
	n.input.Clear()
	if n.directivity != nil {
		n.directivity.Reset()
	}
}
