package graph

import "sync"

// waitingItem tracks one barrier entry point's per-frame state,
// translated directly from original_source's
// Connectivity/AdvancedEntryPointManager.hpp CDataWaitingEntryPoint.
type waitingItem struct {
	id          string
	connections int
	received    int
	done        bool
}

// Barrier implements the per-frame barrier described in spec.md §4.1
// and the {Empty}->{Partial}->{Full}->{Empty} state machine in §4.6:
// each node owns one Barrier keyed by entry-point ID. A second receive
// after an item is already Full/done without an intervening reset is
// a protocol error (a node would have to call NotifyReceived more
// times than declared connections, which cannot happen through normal
// port wiring and indicates a programming error upstream).
type Barrier struct {
	mu    sync.Mutex
	items []*waitingItem
	index map[string]*waitingItem

	// OnOneDataReceived fires on every receive at a registered entry
	// point (spec.md "react in 'one packet' hook" equivalent for
	// barrier entry points: CAdvancedEntryPointManager's
	// OneEntryPointOneDataReceived).
	OnOneDataReceived func(entryPointID string)
	// OnOneReady fires when an entry point's declared connection count
	// has all arrived this frame.
	OnOneReady func(entryPointID string)
	// OnAllReady fires when every registered entry point is ready; the
	// waiting list resets immediately after.
	OnAllReady func()
}

// NewBarrier returns an empty Barrier.
func NewBarrier() *Barrier {
	return &Barrier{index: make(map[string]*waitingItem)}
}

// Register adds entryPointID to the waiting list with the given
// declared connection count, called once per barrier entry point at
// EndSetup (spec.md §4.1 "EndSetup pushes that count into the owning
// node's waiting list").
func (b *Barrier) Register(entryPointID string, connections int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := &waitingItem{id: entryPointID, connections: connections}
	b.items = append(b.items, item)
	b.index[entryPointID] = item
}

// NotifyReceived records one arrival at entryPointID and fires the
// hooks described above as thresholds are crossed.
func (b *Barrier) NotifyReceived(entryPointID string) {
	b.mu.Lock()
	item, ok := b.index[entryPointID]
	if !ok {
		b.mu.Unlock()
		return
	}
	if item.connections == 0 {
		b.mu.Unlock()
		return
	}

	item.received++
	justReady := !item.done && item.received >= item.connections
	if justReady {
		item.done = true
	}
	allReady := justReady && b.allDoneLocked()
	if allReady {
		b.resetLocked()
	}
	b.mu.Unlock()

	if b.OnOneDataReceived != nil {
		b.OnOneDataReceived(entryPointID)
	}
	if justReady && b.OnOneReady != nil {
		b.OnOneReady(entryPointID)
	}
	if allReady && b.OnAllReady != nil {
		b.OnAllReady()
	}
}

func (b *Barrier) allDoneLocked() bool {
	for _, it := range b.items {
		if !it.done {
			return false
		}
	}
	return true
}

func (b *Barrier) resetLocked() {
	for _, it := range b.items {
		it.done = false
		it.received = 0
	}
}

// Bind registers an entry point with this barrier using the entry
// point's own declared connection count, and wires its barrier-path
// receives to call NotifyReceived. Call once per barrier entry point
// after EndSetup has frozen connection counts.
func Bind[T any](b *Barrier, e *EntryPoint[T]) {
	b.Register(e.ID(), e.Connections())
	e.bindBarrier(b.NotifyReceived)
}
