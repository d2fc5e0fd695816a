// Package graph implements the render graph kernel from spec.md §4.1:
// typed exit points (publishers) and entry points (subscribers)
// identified by string names, a per-frame barrier per node, and a
// manager that drives frame ticks and broadcasts commands.
//
// The port shapes are a direct translation of
// original_source/include/Connectivity/ExitPoint.hpp and
// EntryPoint.hpp: an exit point holds its last written value and
// notifies subscribers in attachment order; an entry point tracks a
// declared connection count used by the owning node's barrier.
package graph

// ExitPoint is a named publisher of values of type T. SendData stores
// the value and notifies every subscriber, in the order they
// attached (spec.md §4.1 "Ordering").
type ExitPoint[T any] struct {
	id          string
	data        T
	subscribers []*EntryPoint[T]
}

// NewExitPoint creates an exit point with the given name.
func NewExitPoint[T any](id string) *ExitPoint[T] {
	return &ExitPoint[T]{id: id}
}

// ID returns the exit point's name.
func (e *ExitPoint[T]) ID() string { return e.id }

// Data returns the last value sent through this exit point.
func (e *ExitPoint[T]) Data() T { return e.data }

// Attach subscribes entry to this exit point. Subscriptions are
// recorded in attach order, which is also notification order.
// Attaching an entry point to its own owner, or an exit point to
// itself, is forbidden by construction: Attach is the only way to
// form an edge, and callers never pass a node's own entry points back
// to its own exit points (design note in spec.md §9 "Cyclic
// references").
func (e *ExitPoint[T]) Attach(entry *EntryPoint[T]) {
	e.subscribers = append(e.subscribers, entry)
	entry.addConnection()
}

// Subscribers returns the attached entry points, in subscription order.
func (e *ExitPoint[T]) Subscribers() []*EntryPoint[T] {
	return e.subscribers
}

// SendData stores v and notifies every subscriber in attach order.
func (e *ExitPoint[T]) SendData(v T) {
	e.data = v
	for _, sub := range e.subscribers {
		sub.receive(v)
	}
}

// EntryPoint is a named subscriber of values of type T. Barrier
// controls whether receiving data here participates in the owning
// node's per-frame barrier (spec.md §4.1 "Subscription"): barrier
// entry points accumulate a declared connection count and fire the
// node's barrier hooks; non-barrier ("multiplicity-0") entry points
// fire OnPacket immediately for every receive, regardless of count.
type EntryPoint[T any] struct {
	id          string
	barrier     bool
	data        T
	connections int

	// OnPacket fires on every receive when Barrier is false (the "one
	// packet" hook for nodes that propagate every received packet).
	OnPacket func(id string, data T)
	// onBarrierReceive, set by the owning node's Barrier registration,
	// fires on every receive when Barrier is true.
	onBarrierReceive func(id string)
}

// NewEntryPoint creates an entry point. If barrier is true, the entry
// point participates in the owning node's per-frame barrier bookkeeping
// (spec.md §4.1); its declared connection count is pushed into the
// node's waiting list at EndSetup.
func NewEntryPoint[T any](id string, barrier bool) *EntryPoint[T] {
	return &EntryPoint[T]{id: id, barrier: barrier}
}

// ID returns the entry point's name.
func (e *EntryPoint[T]) ID() string { return e.id }

// IsBarrier reports whether this entry point participates in the
// per-frame barrier.
func (e *EntryPoint[T]) IsBarrier() bool { return e.barrier }

// Connections returns the declared connection count (number of
// Attach calls that targeted this entry point).
func (e *EntryPoint[T]) Connections() int { return e.connections }

// Data returns the last value received.
func (e *EntryPoint[T]) Data() T { return e.data }

func (e *EntryPoint[T]) addConnection() {
	e.connections++
}

// bindBarrier wires this entry point's barrier-path receives to cb,
// called by Bind.
func (e *EntryPoint[T]) bindBarrier(cb func(id string)) {
	e.onBarrierReceive = cb
}

func (e *EntryPoint[T]) receive(v T) {
	e.data = v
	if e.barrier {
		if e.onBarrierReceive != nil {
			e.onBarrierReceive(e.id)
		}
		return
	}
	if e.OnPacket != nil {
		e.OnPacket(e.id, v)
	}
}
