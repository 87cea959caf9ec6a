package stage

import "fmt"

// Name identifies a stage, unique within a single graph.
type Name string

func (n Name) String() string { return string(n) }

// Ref is a send-only capability to a stage's mailbox, typed by the message
// kind that stage accepts. It is produced by WireUp, Output, and
// OutputInterrupt, never constructed directly by callers.
type Ref[Msg any] struct {
	name Name
}

// Name returns the stage this ref points at.
func (r Ref[Msg]) Name() Name { return r.name }

func (r Ref[Msg]) String() string { return fmt.Sprintf("Ref(%s)", r.name) }

// Noop returns a ref to a stage that does not exist yet. It is useful as a
// placeholder initial value for state fields that WireUp later overwrites
// with a real Ref, breaking the cycle between two stages that each need to
// know about the other before both exist.
func Noop[Msg any]() Ref[Msg] {
	return Ref[Msg]{name: ""}
}

// BuildRef is the handle returned by Stage before the stage has been wired
// up. It carries the stage's initial state so that WireUp can mutate it
// (typically to inject now-resolved Refs to other stages) before the stage
// becomes addressable.
type BuildRef[Msg, St any] struct {
	name  Name
	state St
}

// Name returns the stage this build-time handle will become.
func (b BuildRef[Msg, St]) Name() Name { return b.name }
