package stage

import "sync"

// airlock is the single-slot rendezvous cell shared by every stage in a
// graph and the driver. Exactly one side writes at a time: a suspended
// stage writes an Effect, the driver writes a Response. The slot is never
// observed holding both; that invariant is enforced here, not merely
// documented.
//
// Only one stage ever runs at a time (the driver steps them one by one), so
// a single airlock shared by the whole graph - rather than one per stage -
// is enough: it is only ever touched by whichever single stage is currently
// suspending or resuming, plus the driver thread reading it back out.
type airlock struct {
	mu  sync.Mutex
	eff Effect
	rsp Response
}

// postEffect is called by a suspending stage. The slot must be empty or
// hold a UnitResponse left over from the stage's own prior Receive
// rearm-and-resume (in which case it is implicitly consumed here).
func (a *airlock) postEffect(e Effect) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.eff != nil {
		violate("effect already posted: %s", a.eff)
	}
	if a.rsp != nil && !isUnit(a.rsp) {
		violate("airlock contains leftover response: %T", a.rsp)
	}
	a.rsp = nil
	a.eff = e
}

// takeEffect is driver-only: read the posted effect and empty the slot.
func (a *airlock) takeEffect() (Effect, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.eff == nil {
		return nil, false
	}
	e := a.eff
	a.eff = nil
	return e, true
}

// postResponse is driver-only: the slot must be empty.
func (a *airlock) postResponse(r Response) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.eff != nil {
		violate("cannot post response while effect %s is pending", a.eff)
	}
	if a.rsp != nil {
		violate("response already posted")
	}
	a.rsp = r
}

// takeResponse is stage-side: read back whatever the driver posted.
func (a *airlock) takeResponse() (Response, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rsp == nil {
		return nil, false
	}
	r := a.rsp
	a.rsp = nil
	return r, true
}
