package echo

import (
	"fmt"
	"strings"

	"github.com/rrruko/amaru-sim/world"
)

// Property checks that every client-originated Echo request in trace has
// a later matching EchoOk response routed back to the same client, with
// the same in_reply_to id and the same echoed body - the Go rendition of
// the original's ECHO_PROPERTY. It is the property that the uppercase
// bug seeded into the echo stage's fifth reply is meant to violate.
func Property(trace []world.Envelope[Message]) error {
	for i, msg := range trace {
		if !msg.FromClient() {
			continue
		}
		req, ok := msg.Body.(Echo)
		if !ok {
			continue
		}
		if !hasMatchingReply(trace[i+1:], msg.Src, req) {
			return fmt.Errorf("no matching response found for echo request %s\n%s", req, dumpTrace(trace))
		}
	}
	return nil
}

func hasMatchingReply(rest []world.Envelope[Message], client string, req Echo) bool {
	for _, resp := range rest {
		if resp.Dest != client {
			continue
		}
		echoOk, isEchoOk := resp.Body.(EchoOk)
		if !isEchoOk {
			continue
		}
		if echoOk.InReplyTo == req.MsgID && echoOk.Body == req.Body {
			return true
		}
	}
	return false
}

func dumpTrace(trace []world.Envelope[Message]) string {
	var b strings.Builder
	b.WriteString("trace:\n")
	for _, env := range trace {
		fmt.Fprintf(&b, "  %s -> %s: %v\n", env.Src, env.Dest, env.Body)
	}
	return b.String()
}
