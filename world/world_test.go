package world

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echoNodeHandle answers every envelope it receives by bouncing the body
// straight back to the sender, used to exercise World's routing and trace
// partitioning without any dependency on the stage package.
type echoNodeHandle struct {
	self   string
	closed bool
}

func (h *echoNodeHandle) Handle(env Envelope[string]) ([]Envelope[string], error) {
	return []Envelope[string]{{Src: h.self, Dest: env.Src, Body: env.Body}}, nil
}

func (h *echoNodeHandle) Close() error {
	h.closed = true
	return nil
}

func TestWorldRoutesClientRequestToResponse(t *testing.T) {
	node := &echoNodeHandle{self: "n1"}
	w := New[string](
		[]Envelope[string]{{Src: "c1", Dest: "n1", Body: "hello"}},
		map[string]NodeHandle[string]{"n1": node},
	)

	trace := w.Run()
	require.Len(t, trace, 2)
	require.Equal(t, "c1", trace[0].Src) // the inbound client request
	require.Equal(t, "n1", trace[1].Src) // n1's reply, routed straight to the client
	require.Equal(t, "hello", trace[1].Body)

	require.NoError(t, w.Close())
	require.True(t, node.closed)
}

func TestWorldSchedulesNodeToNodeTrafficAfterNetDelay(t *testing.T) {
	forward := &fixedReplyHandle{replies: []Envelope[string]{{Src: "n1", Dest: "n2", Body: "x"}}}
	hop := &fixedReplyHandle{replies: nil}
	w := New[string](
		[]Envelope[string]{{Src: "c1", Dest: "n1", Body: "go"}},
		map[string]NodeHandle[string]{"n1": forward, "n2": hop},
	)
	// The client request arrives at time zero; n1's reply to n2 is
	// node-to-node traffic, so it is rescheduled NetDelay later.
	require.Equal(t, Continue, w.Step())
	require.Equal(t, time.Duration(0), w.now)
	require.Equal(t, Continue, w.Step())
	require.Equal(t, NetDelay, w.now)
	require.Equal(t, Done, w.Step())
}

// fixedReplyHandle answers every envelope with the same fixed replies.
type fixedReplyHandle struct {
	replies []Envelope[string]
}

func (f *fixedReplyHandle) Handle(Envelope[string]) ([]Envelope[string], error) {
	return f.replies, nil
}
func (f *fixedReplyHandle) Close() error { return nil }

func TestWorldPanicsOnUnknownDestination(t *testing.T) {
	w := New[string](
		[]Envelope[string]{{Src: "c1", Dest: "nowhere", Body: "x"}},
		map[string]NodeHandle[string]{},
	)
	require.Panics(t, func() { w.Run() })
}

func TestArrivalHeapOrdersByTimeThenInsertionSequence(t *testing.T) {
	h := newArrivalHeap[string]()
	h.push(10*time.Millisecond, Envelope[string]{Body: "second"})
	h.push(5*time.Millisecond, Envelope[string]{Body: "first"})
	h.push(5*time.Millisecond, Envelope[string]{Body: "tiebreak-loses"})

	first, ok := h.pop()
	require.True(t, ok)
	require.Equal(t, "first", first.envelope.Body)

	second, ok := h.pop()
	require.True(t, ok)
	require.Equal(t, "tiebreak-loses", second.envelope.Body)

	third, ok := h.pop()
	require.True(t, ok)
	require.Equal(t, "second", third.envelope.Body)

	_, ok = h.pop()
	require.False(t, ok)
}

func TestEnvelopeClientPrefixDetection(t *testing.T) {
	env := Envelope[string]{Src: "c1", Dest: "n1", Body: "x"}
	require.True(t, env.FromClient())
	require.False(t, env.ToClient())
	require.True(t, strings.HasPrefix(env.Src, "c"))
}
