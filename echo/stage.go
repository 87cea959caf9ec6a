package echo

import (
	"context"
	"strings"

	"github.com/rrruko/amaru-sim/stage"
	"github.com/rrruko/amaru-sim/world"
)

func uppercase(s string) string { return strings.ToUpper(s) }

// nodeState is the echo stage's state: seen counts the Echo requests it
// has answered so far (the seeded bug below keys off it), and out is the
// ref replies are sent to.
type nodeState struct {
	seen uint64
	out  stage.Ref[world.Envelope[Message]]
}

// BuildNode assembles a single "echo" stage wired to an output sink,
// mirroring the spawn closure in the original's
// simulate_pure_stage_echo test: every reply increments a counter, and
// every fifth reply is uppercased by mistake - the seeded regression the
// property in this package exists to catch.
func BuildNode() (in stage.Ref[world.Envelope[Message]], driver *stage.Driver, out *stage.Receiver[world.Envelope[Message]]) {
	b := stage.NewBuilder()
	outRef, recv := stage.Output[world.Envelope[Message]](b, "output")

	build := stage.Stage[world.Envelope[Message], nodeState](
		b, "echo", nodeState{out: stage.Noop[world.Envelope[Message]]()},
		func(ctx context.Context, st nodeState, msg world.Envelope[Message], eff *stage.Effects) (nodeState, error) {
			req, ok := msg.Body.(Echo)
			if !ok {
				panic("echo: got a message that wasn't an Echo")
			}
			st.seen++

			body := req.Body
			if st.seen%5 == 0 {
				body = uppercase(body)
			}

			reply := world.Envelope[Message]{
				Src:  msg.Dest,
				Dest: msg.Src,
				Body: EchoOk{MsgID: st.seen, InReplyTo: req.MsgID, Body: body},
			}
			stage.Send(ctx, eff, st.out, reply)
			return st, nil
		},
	)
	inRef := stage.WireUp[world.Envelope[Message], nodeState](b, build, func(st *nodeState) { st.out = outRef })

	return inRef, b.Run(), recv
}

// NewNodeHandle builds a fresh echo node and adapts it as a world.NodeHandle.
func NewNodeHandle(string) world.NodeHandle[Message] {
	in, driver, recv := BuildNode()
	return world.NewStageNodeHandle(driver, in, recv)
}
