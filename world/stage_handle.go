package world

import (
	"fmt"

	"github.com/rrruko/amaru-sim/stage"
)

// StageNodeHandle adapts a stage.Driver graph into a NodeHandle: an
// incoming envelope is enqueued onto in's mailbox, the driver is run to
// completion (RunUntilBlocked must land on Idle - any Interrupt or
// failure here means the node's own stage graph is broken, not that the
// world should limp on), and everything the graph forwarded to out is
// drained and returned. This is the Go rendition of the original's
// pure_stage_node_handle.
type StageNodeHandle[Msg any] struct {
	driver *stage.Driver
	in     stage.Ref[Envelope[Msg]]
	out    *stage.Receiver[Envelope[Msg]]
}

// NewStageNodeHandle wraps an already-built driver. in is where inbound
// envelopes are delivered, out is where the graph's replies land.
func NewStageNodeHandle[Msg any](driver *stage.Driver, in stage.Ref[Envelope[Msg]], out *stage.Receiver[Envelope[Msg]]) *StageNodeHandle[Msg] {
	return &StageNodeHandle[Msg]{driver: driver, in: in, out: out}
}

func (h *StageNodeHandle[Msg]) Handle(env Envelope[Msg]) ([]Envelope[Msg], error) {
	stage.EnqueueMsg(h.driver, h.in, env)
	reason := h.driver.RunUntilBlocked()
	if reason.Kind != stage.Idle {
		return nil, fmt.Errorf("stage node handle: graph did not settle: %s", reason)
	}
	return h.out.Drain(), nil
}

// Close is a no-op: the driver's stage goroutines are parked on channel
// receives with no process or file descriptor to release, and World
// abandons the driver along with the rest of the node when it is done.
func (h *StageNodeHandle[Msg]) Close() error { return nil }
