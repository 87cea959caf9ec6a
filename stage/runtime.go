package stage

import "context"

// startStage launches the goroutine backing one stage record. It is the
// cooperative-yield "runtime" of spec component B: a transition behaves as
// a coroutine that suspends at well-defined points, which in Go means a
// goroutine parked on a channel receive rather than a hand-written state
// machine or a polled Future - the two are equivalent under the airlock
// discipline, and a parked goroutine is the more idiomatic Go rendition.
func (d *Driver) startStage(rec *record) {
	go func() {
		state := rec.state
		for {
			<-rec.wake
			resp, ok := d.airlock.takeResponse()
			if !ok {
				violate("stage %s woken with no response posted", rec.name)
			}
			msgResp, ok := resp.(MessageResponse)
			if !ok {
				violate("stage %s: expected MessageResponse to start a transition, got %T", rec.name, resp)
			}

			eff := &Effects{driver: d, self: rec.name}
			newState, err := rec.transition(context.Background(), state, msgResp.Msg, eff)
			if err != nil {
				rec.outcome <- stepOutcome{done: true, err: err}
				return
			}
			state = newState
			rec.outcome <- stepOutcome{done: true, state: state}
		}
	}()
}
