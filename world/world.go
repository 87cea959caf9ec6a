package world

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeHandle is one simulated node's mailbox-in, messages-out boundary.
// Handle delivers one envelope and returns everything the node emitted in
// response (to clients and to other nodes alike - World sorts that out).
// Close releases any resources (such as a child process) the handle owns;
// World.Close calls it once for every node.
type NodeHandle[Msg any] interface {
	Handle(Envelope[Msg]) ([]Envelope[Msg], error)
	Close() error
}

// Next reports whether World.Step made progress or the heap ran dry.
type Next int

const (
	// Continue means a message was delivered and the heap may still hold
	// more.
	Continue Next = iota
	// Done means the heap is empty; the run is over.
	Done
)

// World is the discrete-event scheduler: a min-heap of pending deliveries
// ordered by arrival time, a fixed table of named node handles, and the
// trace of every client-facing envelope observed along the way. It is the
// Go rendition of amaru-sim's World/step_world/run_world.
type World[Msg any] struct {
	runID uuid.UUID
	heap  *arrivalHeap[Msg]
	nodes map[string]NodeHandle[Msg]
	trace []Envelope[Msg]
	now   time.Duration
}

// New builds a World seeded with the given initial envelopes (arriving at
// time zero, in the order given) and node table. Each World gets its own
// random run id, so a caller logging several runs side by side (retried
// shrink candidates, a batch of scenarios) can tell which log lines belong
// to which run without threading a correlation id through every call site
// by hand.
func New[Msg any](initial []Envelope[Msg], nodes map[string]NodeHandle[Msg]) *World[Msg] {
	w := &World[Msg]{
		runID: uuid.New(),
		heap:  newArrivalHeap[Msg](),
		nodes: nodes,
	}
	for _, env := range initial {
		w.heap.push(0, env)
	}
	return w
}

// RunID identifies this World instance for logging and trace
// correlation.
func (w *World[Msg]) RunID() uuid.UUID {
	return w.runID
}

// Trace returns every client-facing envelope recorded so far: requests
// that originated at a client and every response routed back to one.
func (w *World[Msg]) Trace() []Envelope[Msg] {
	return w.trace
}

// Step pops the earliest-arriving envelope, delivers it to its
// destination node, partitions the node's output into client-addressed
// responses (appended to the trace immediately) and node-to-node output
// (scheduled NetDelay later), and records the incoming envelope in the
// trace if it came from a client. It panics on a node handler error or an
// unknown destination, matching the original's "this is a test harness,
// fail loudly" stance for both.
func (w *World[Msg]) Step() Next {
	ent, ok := w.heap.pop()
	if !ok {
		return Done
	}
	w.now = ent.arrival
	env := ent.envelope

	node, ok := w.nodes[env.Dest]
	if !ok {
		panic(fmt.Sprintf("world: unknown destination node %q", env.Dest))
	}

	outgoing, err := node.Handle(env)
	if err != nil {
		panic(err)
	}

	if env.FromClient() {
		w.trace = append(w.trace, env)
	}

	for _, out := range outgoing {
		if out.ToClient() {
			w.trace = append(w.trace, out)
			continue
		}
		w.heap.push(w.now+NetDelay, out)
	}

	return Continue
}

// Run drains the heap by repeated Step calls and returns every trace
// entry recorded during this call (not ones recorded by a prior Run on
// the same World).
func (w *World[Msg]) Run() []Envelope[Msg] {
	start := len(w.trace)
	for w.Step() == Continue {
	}
	return w.trace[start:]
}

// Close releases every node handle's resources. Safe to call once after a
// Run completes or a test abandons the world early.
func (w *World[Msg]) Close() error {
	var first error
	for _, n := range w.nodes {
		if err := n.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
