package world

import (
	"container/heap"
	"time"
)

// NetDelay is the fixed network latency step_world adds to every outgoing
// message it reinserts into the heap, matching the original's
// Duration::from_millis(100) delay applied between a node's outputs and
// their next delivery.
const NetDelay = 100 * time.Millisecond

// entry is one scheduled delivery: envelope plus the virtual time it
// arrives at. seq breaks ties between equal arrival times in insertion
// order, which the original's bare BinaryHeap<Reverse<Entry>> leaves
// unspecified - pinning it here keeps a run fully reproducible from its
// seed, matching invariant 3 in spec.md section 9 about never depending
// on unordered iteration for scheduling decisions.
type entry[Msg any] struct {
	arrival  time.Duration
	seq      uint64
	envelope Envelope[Msg]
}

// arrivalHeap is a min-heap ordered by (arrival time, insertion sequence),
// the Go stand-in for BinaryHeap<Reverse<Entry<Msg>>>.
type arrivalHeap[Msg any] struct {
	items []entry[Msg]
	seq   uint64
}

func newArrivalHeap[Msg any]() *arrivalHeap[Msg] {
	h := &arrivalHeap[Msg]{}
	heap.Init(h)
	return h
}

func (h *arrivalHeap[Msg]) push(at time.Duration, env Envelope[Msg]) {
	heap.Push(h, entry[Msg]{arrival: at, seq: h.seq, envelope: env})
	h.seq++
}

// pop removes and returns the earliest-arriving entry, or false if empty.
func (h *arrivalHeap[Msg]) pop() (entry[Msg], bool) {
	if h.Len() == 0 {
		return entry[Msg]{}, false
	}
	return heap.Pop(h).(entry[Msg]), true
}

func (h *arrivalHeap[Msg]) Len() int { return len(h.items) }

func (h *arrivalHeap[Msg]) Less(i, j int) bool {
	if h.items[i].arrival != h.items[j].arrival {
		return h.items[i].arrival < h.items[j].arrival
	}
	return h.items[i].seq < h.items[j].seq
}

func (h *arrivalHeap[Msg]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *arrivalHeap[Msg]) Push(x any) { h.items = append(h.items, x.(entry[Msg])) }

func (h *arrivalHeap[Msg]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}
