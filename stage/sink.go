package stage

import "context"

// sinkState is the (empty) state carried by every Output/OutputInterrupt
// stage; the interesting state lives in the Receiver instead.
type sinkState struct{}

// Output registers a stage that forwards every message it receives into a
// Receiver and otherwise never suspends, the Go rendition of
// SimulationBuilder::output.
func Output[T any](b *Builder, name Name) (Ref[T], *Receiver[T]) {
	recv := &Receiver[T]{}
	transition := func(ctx context.Context, state sinkState, msg T, eff *Effects) (sinkState, error) {
		recv.push(msg)
		return state, nil
	}
	build := Stage[T, sinkState](b, name, sinkState{}, transition)
	ref := WireUp[T, sinkState](b, build, func(*sinkState) {})
	return ref, recv
}

// OutputInterrupt registers a stage that forwards each message into a
// Receiver and then interrupts the whole driver, the Go rendition of
// SimulationBuilder::output_interrupt: it forces a test to explicitly
// Driver.ResumeInterrupt before the graph makes any further progress,
// giving it a deterministic checkpoint to inspect output at.
func OutputInterrupt[T any](b *Builder, name Name) (Ref[T], *Receiver[T]) {
	recv := &Receiver[T]{}
	transition := func(ctx context.Context, state sinkState, msg T, eff *Effects) (sinkState, error) {
		recv.push(msg)
		eff.Interrupt(ctx)
		return state, nil
	}
	build := Stage[T, sinkState](b, name, sinkState{}, transition)
	ref := WireUp[T, sinkState](b, build, func(*sinkState) {})
	return ref, recv
}
