// Package propcheck wires a World simulation into a property-based test
// runner, the Go rendition of amaru-sim's simulate() atop proptest's
// TestRunner. pgregory.net/rapid plays the TestRunner role: it generates
// and shrinks the initial client request sequence, replaying the minimal
// failing draw automatically when a property fails.
package propcheck

import (
	"fmt"

	"pgregory.net/rapid"

	"github.com/rrruko/amaru-sim/world"
)

// Config bounds the generated scenario: how many simulated protocol nodes
// to spawn and how many initial client requests to draw, matching the
// `number_of_nodes` parameter and the `0..20` request-count range in the
// original simulate().
type Config struct {
	NumberOfNodes int
	MaxMessages   int
}

// Failure captures a property violation for a caller that wants to
// inspect it programmatically rather than parse rapid's failure output.
// rapid itself already reports the minimal failing draw and a reproducible
// seed; Failure additionally surfaces the client-facing trace that
// violated the property.
type Failure[Msg any] struct {
	Trace  []world.Envelope[Msg]
	Reason string
}

// Simulate draws an initial batch of client requests from genMessage (0 to
// cfg.MaxMessages of them, addressed from "c1" to "n1"), spawns
// cfg.NumberOfNodes nodes via spawn, runs a World to completion, and
// checks property against the resulting client-facing trace. A violation
// is reported to t (which rapid will shrink and replay to a minimal
// reproduction) and also returned as a Failure for direct inspection.
func Simulate[Msg any](
	t *rapid.T,
	cfg Config,
	spawn func(nodeName string) world.NodeHandle[Msg],
	genMessage *rapid.Generator[Msg],
	property func([]world.Envelope[Msg]) error,
) *Failure[Msg] {
	bodies := rapid.SliceOfN(genMessage, 0, cfg.MaxMessages).Draw(t, "messages")

	initial := make([]world.Envelope[Msg], len(bodies))
	for i, body := range bodies {
		initial[i] = world.Envelope[Msg]{Src: "c1", Dest: "n1", Body: body}
	}

	nodes := make(map[string]world.NodeHandle[Msg], cfg.NumberOfNodes)
	for i := 1; i <= cfg.NumberOfNodes; i++ {
		name := fmt.Sprintf("n%d", i)
		nodes[name] = spawn(name)
	}

	w := world.New(initial, nodes)
	defer w.Close()
	trace := w.Run()

	if err := property(trace); err != nil {
		t.Errorf("property violated: %v\ntrace: %+v", err, trace)
		return &Failure[Msg]{Trace: trace, Reason: err.Error()}
	}
	return nil
}
