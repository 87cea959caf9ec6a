package stage

import "context"

// transitionFunc is the type-erased form of a stage's user transition,
// downcasting state and message back to their concrete types internally.
type transitionFunc func(ctx context.Context, state State, msg Message, eff *Effects) (State, error)

// stepOutcome is what a stage goroutine reports back to the driver after
// being woken: either it suspended on a new effect, or its transition
// finished (Ready), carrying the next state or a fatal error.
type stepOutcome struct {
	suspended bool
	effect    Effect

	done  bool
	state State
	err   error
}

// record is the driver's bookkeeping for one stage: its mailbox, its
// current state, and the two channels used to hand control back and forth
// with its goroutine. wake carries no data - the actual payload always
// travels through the shared airlock - it only tells the goroutine "the
// airlock now holds your response, go look".
type record struct {
	name       Name
	transition transitionFunc
	state      State

	mailbox  []Message
	capacity int

	effect          Effect   // last-observed suspension point; ReceiveEffect when idle
	pendingResponse Response // set by a Resume* call, nil until then

	blockedSenders []Name // not populated; autoResumeSweep finds blocked senders by scanning every stage's effect

	wake    chan struct{}
	outcome chan stepOutcome

	finished bool // true once the transition goroutine has reported a fatal error
}

func newRecord(name Name, capacity int, transition transitionFunc, initial State) *record {
	return &record{
		name:       name,
		transition: transition,
		state:      initial,
		capacity:   capacity,
		effect:     ReceiveEffect{Stage: name},
		wake:       make(chan struct{}),
		outcome:    make(chan stepOutcome),
	}
}

// runnable implements the two-rule selection in spec.md section 4.D.
func (r *record) runnable() bool {
	if r.finished {
		return false
	}
	if _, idle := r.effect.(ReceiveEffect); idle && len(r.mailbox) > 0 {
		return true
	}
	return r.pendingResponse != nil
}
