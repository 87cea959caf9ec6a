package stage

import "context"

// Effects is the capability a running transition uses to suspend itself.
// It is handed to the transition fresh on every invocation; it is not safe
// to retain and use outside of that call.
type Effects struct {
	driver *Driver
	self   Name
}

// suspend posts effect to the shared airlock, tells the driver a new
// suspension is ready to be read, and blocks until the driver wakes this
// stage back up with a response in the airlock.
func (e *Effects) suspend(effect Effect) Response {
	rec := e.driver.stages[e.self]
	e.driver.airlock.postEffect(effect)
	rec.outcome <- stepOutcome{suspended: true, effect: effect}
	<-rec.wake
	resp, ok := e.driver.airlock.takeResponse()
	if !ok {
		violate("stage %s woke with no response in the airlock", e.self)
	}
	return resp
}

// Interrupt halts the whole driver until Driver.ResumeInterrupt is called.
func (e *Effects) Interrupt(ctx context.Context) {
	e.suspend(InterruptEffect{Stage: e.self})
}

// Wait asks virtual time to advance by at least d before this stage
// resumes.
func (e *Effects) Wait(ctx context.Context, d Duration) {
	e.suspend(WaitEffect{Stage: e.self, For: d})
}

// Clock reads the current virtual time. Unlike the other effects this one
// never actually suspends observably: the driver answers it inline within
// the same step, so it cannot be independently resumed or interrupted.
func (e *Effects) Clock(ctx context.Context) Instant {
	resp := e.suspend(clockEffect{Stage: e.self})
	instant, ok := resp.(InstantResponse)
	if !ok {
		violate("stage %s: expected InstantResponse for Clock, got %T", e.self, resp)
	}
	return instant.At
}

// Send delivers msg to to's mailbox, suspending until the driver (or an
// auto-resuming RunUntilBlocked loop) has room and performs the enqueue.
//
// Send is a free function, not a method, because Go methods cannot
// introduce their own type parameter: Effects is shared across every send
// a transition makes, but each target stage has its own message type.
func Send[Msg any](ctx context.Context, eff *Effects, to Ref[Msg], msg Msg) {
	eff.suspend(SendEffect{From: eff.self, To: to.name, Msg: msg})
}
