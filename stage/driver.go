package stage

import (
	"reflect"

	"github.com/rs/zerolog"
)

// Driver is the deterministic scheduler returned by Builder.Run. It owns
// every stage's mailbox and the shared effect airlock; stages never touch
// either directly.
type Driver struct {
	stages map[Name]*record
	order  []Name // sorted stage names, fixed at Run() time

	airlock airlock
	clock   *virtualClock
	log     zerolog.Logger
}

// EnqueueMsg pushes msgs onto target's mailbox in order. Called from
// outside the stage graph (a test, or a World adapter), so it is not
// subject to the Send effect's backpressure contract: if capacity would be
// exceeded, this implementation grows the mailbox rather than blocking the
// calling goroutine or silently dropping input - a test driver must never
// deadlock the goroutine that is trying to drive it. Each overflow is
// logged so a test author notices an unbounded producer.
func EnqueueMsg[Msg any](d *Driver, to Ref[Msg], msgs ...Msg) {
	rec := d.stages[to.name]
	if rec == nil {
		violate("enqueue to unknown stage %s", to.name)
	}
	for _, m := range msgs {
		if len(rec.mailbox) >= rec.capacity {
			d.log.Warn().
				Str("stage", string(to.name)).
				Int("capacity", rec.capacity).
				Msg("external enqueue exceeded mailbox capacity; growing mailbox")
		}
		rec.mailbox = append(rec.mailbox, m)
	}
}

// runnableStages returns the names of every currently-runnable stage, in
// the deterministic lexicographic order required by spec.md section 4.D.
func (d *Driver) runnableStages() []Name {
	var out []Name
	for _, name := range d.order {
		if d.stages[name].runnable() {
			out = append(out, name)
		}
	}
	return out
}

// TryEffect single-steps the driver: it picks the lexicographically-first
// runnable stage, advances it by exactly one round (deliver the due
// response, run until the next externally-visible suspension or
// completion), and returns the resulting effect. It returns ErrIdle if no
// stage is runnable.
func (d *Driver) TryEffect() (Effect, error) {
	runnable := d.runnableStages()
	if len(runnable) == 0 {
		return nil, ErrIdle
	}
	rec := d.stages[runnable[0]]
	return d.stepStage(rec)
}

// Effect is TryEffect but panics instead of returning ErrIdle, for test
// code that already knows a stage must be runnable.
func (d *Driver) Effect() Effect {
	e, err := d.TryEffect()
	if err != nil {
		panic(err)
	}
	return e
}

// stepStage advances rec by exactly one observable round. Clock effects
// are resolved inline without ending the round, matching the fact that
// Clock never appears in the public resume surface.
func (d *Driver) stepStage(rec *record) (Effect, error) {
	for {
		var resp Response
		switch {
		case rec.pendingResponse != nil:
			resp = rec.pendingResponse
			rec.pendingResponse = nil
		default:
			if len(rec.mailbox) == 0 {
				violate("stage %s selected as runnable but has nothing to deliver", rec.name)
			}
			msg := rec.mailbox[0]
			rec.mailbox = rec.mailbox[1:]
			resp = MessageResponse{Msg: msg}
		}

		d.airlock.postResponse(resp)
		rec.wake <- struct{}{}
		outcome := <-rec.outcome

		if outcome.done {
			rec.finished = outcome.err != nil
			rec.effect = ReceiveEffect{Stage: rec.name}
			if outcome.err != nil {
				return nil, outcome.err
			}
			rec.state = outcome.state
			return rec.effect, nil
		}

		// The suspending stage left its effect in the airlock via postEffect;
		// drain it now so the slot is empty before this stage's next
		// postResponse, whether that happens later in this same loop (Clock)
		// or on some future round.
		d.airlock.takeEffect()

		if ce, ok := outcome.effect.(clockEffect); ok {
			// Resolved transparently: post the instant and loop back into
			// the same round without returning control to the caller.
			_ = ce
			rec.pendingResponse = InstantResponse{At: d.clock.now()}
			continue
		}

		rec.effect = outcome.effect
		return rec.effect, nil
	}
}

// ResumeReceive is a no-op on the driver side: the next TryEffect call
// performs the dequeue itself once the mailbox has data. It exists for
// symmetry with the other Resume* calls and to assert the stage is
// currently actually waiting on Receive.
func (d *Driver) ResumeReceive(stage Name) {
	rec := d.mustStage(stage)
	if _, ok := rec.effect.(ReceiveEffect); !ok {
		violate("ResumeReceive(%s): stage is not waiting on Receive (got %s)", stage, rec.effect)
	}
}

// ResumeSend performs the actual enqueue of a pending Send effect's
// message onto to's mailbox, then marks from runnable again. It is a
// protocol violation if from is not currently suspended on exactly this
// Send, or if to's mailbox is already full (ResumeSend panics rather than
// leaving the sender suspended; RunUntilBlocked's automatic resumption
// keeps a sender suspended until the target has room).
func (d *Driver) ResumeSend(from, to Name, msg Message) {
	rec := d.mustStage(from)
	se, ok := rec.effect.(SendEffect)
	if !ok || se.To != to || !reflect.DeepEqual(se.Msg, msg) {
		violate("ResumeSend(%s, %s): stage is not waiting on that Send (got %s)", from, to, rec.effect)
	}
	target := d.mustStage(to)
	if len(target.mailbox) >= target.capacity {
		violate("ResumeSend(%s, %s): target mailbox is full", from, to)
	}
	target.mailbox = append(target.mailbox, msg)
	rec.pendingResponse = UnitResponse{}
}

// trySend attempts the same enqueue as ResumeSend but does not panic on a
// full mailbox (an unknown destination is still a protocol violation): it
// reports whether it could make progress, for RunUntilBlocked's
// auto-resume sweep over stages that may have been stuck on a full
// mailbox.
func (d *Driver) trySend(rec *record, se SendEffect) bool {
	target := d.stages[se.To]
	if target == nil {
		violate("Send(%s->%s): unknown destination", se.From, se.To)
	}
	if len(target.mailbox) >= target.capacity {
		return false
	}
	target.mailbox = append(target.mailbox, se.Msg)
	rec.pendingResponse = UnitResponse{}
	return true
}

// ResumeInterrupt clears the interrupt and lets the stage continue.
func (d *Driver) ResumeInterrupt(stage Name) {
	rec := d.mustStage(stage)
	if _, ok := rec.effect.(InterruptEffect); !ok {
		violate("ResumeInterrupt(%s): stage is not interrupted (got %s)", stage, rec.effect)
	}
	rec.pendingResponse = UnitResponse{}
}

// ResumeWait advances the virtual clock by the requested duration and lets
// the stage continue.
func (d *Driver) ResumeWait(stage Name) {
	rec := d.mustStage(stage)
	we, ok := rec.effect.(WaitEffect)
	if !ok {
		violate("ResumeWait(%s): stage is not waiting (got %s)", stage, rec.effect)
	}
	d.clock.advance(we.For)
	rec.pendingResponse = UnitResponse{}
}

func (d *Driver) mustStage(name Name) *record {
	rec, ok := d.stages[name]
	if !ok {
		violate("unknown stage %s", name)
	}
	return rec
}

// BlockKind is the reason RunUntilBlocked stopped.
type BlockKind int

const (
	// Idle means no mailbox has data and no response is pending anywhere.
	Idle BlockKind = iota
	// Interrupted means a stage posted Interrupt and the loop is not
	// auto-resuming it.
	Interrupted
	// Failed means a transition returned an error.
	Failed
)

// BlockReason is the outcome of RunUntilBlocked.
type BlockReason struct {
	Kind  BlockKind
	Stage Name  // set when Kind == Interrupted
	Err   error // set when Kind == Failed
}

func (b BlockReason) String() string {
	switch b.Kind {
	case Idle:
		return "Idle"
	case Interrupted:
		return "Interrupted(" + string(b.Stage) + ")"
	case Failed:
		return "Failed(" + b.Err.Error() + ")"
	default:
		return "unknown"
	}
}

// RunUntilBlocked repeatedly steps the driver, auto-resuming Send and Wait
// effects as they become satisfiable, until no stage is runnable (Idle), a
// stage posts Interrupt (Interrupted - Interrupt is deliberately never
// auto-resumed, since it means the stage wants to halt the whole driver),
// or a transition fails (Failed).
func (d *Driver) RunUntilBlocked() BlockReason {
	for {
		progressed := d.autoResumeSweep()

		eff, err := d.TryEffect()
		if err != nil {
			if err == ErrIdle {
				if progressed {
					continue
				}
				return BlockReason{Kind: Idle}
			}
			return BlockReason{Kind: Failed, Err: err}
		}

		switch e := eff.(type) {
		case InterruptEffect:
			return BlockReason{Kind: Interrupted, Stage: e.Stage}
		case SendEffect:
			rec := d.stages[e.From]
			d.trySend(rec, e)
		case WaitEffect:
			d.ResumeWait(e.Stage)
		case ReceiveEffect:
			// Nothing to do; the loop naturally reconsiders every stage.
		}
	}
}

// autoResumeSweep retries every stage currently stuck on a Send whose
// target now has room, or waiting, so a sender that was blocked long
// before the stage that frees its target is stepped again isn't
// forgotten. Returns true if it unblocked anything.
func (d *Driver) autoResumeSweep() bool {
	progressed := false
	for _, name := range d.order {
		rec := d.stages[name]
		if rec.pendingResponse != nil || rec.finished {
			continue
		}
		if se, ok := rec.effect.(SendEffect); ok {
			if d.trySend(rec, se) {
				progressed = true
			}
		}
		if _, ok := rec.effect.(WaitEffect); ok {
			d.ResumeWait(name)
			progressed = true
		}
	}
	return progressed
}
