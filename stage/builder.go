package stage

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

const defaultMailboxSize = 10

// Transition is the user-supplied logic for one stage: given its current
// state and the message just delivered, it runs until the next suspension
// point (via eff) and returns the state to carry into the following
// message.
type Transition[Msg, St any] func(ctx context.Context, state St, msg Msg, eff *Effects) (St, error)

// pendingStage is the builder's bookkeeping for one stage before Run wires
// goroutines and mailboxes together.
type pendingStage struct {
	name       Name
	capacity   int
	transition transitionFunc
	state      State
	wired      bool
}

// Builder assembles a stage graph in two phases: Stage registers each
// stage (possibly referencing other stages' not-yet-known Refs via
// Noop placeholders), then WireUp resolves those placeholders once every
// stage exists. This mirrors SimulationBuilder's own two-phase contract,
// needed because stages commonly need to hold a Ref to a peer that is
// itself still being built.
type Builder struct {
	stages     map[Name]*pendingStage
	order      []Name
	defaultCap int
	log        zerolog.Logger
}

// NewBuilder returns an empty Builder with the default mailbox size.
func NewBuilder() *Builder {
	return &Builder{
		stages:     make(map[Name]*pendingStage),
		defaultCap: defaultMailboxSize,
		log:        zerolog.Nop(),
	}
}

// WithLogger overrides the default no-op logger the driver uses for its
// diagnostics; the only thing it logs is an external enqueue exceeding a
// mailbox's capacity.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.log = l
	return b
}

// WithMailboxSize sets the default bounded mailbox capacity for every
// stage registered after this call. The spec default is 10.
func (b *Builder) WithMailboxSize(n int) *Builder {
	b.defaultCap = n
	return b
}

// Stage registers a new stage with the given initial state and
// transition, returning a build-time handle. The stage is not yet
// addressable by other code (no Ref exists) until WireUp runs.
func Stage[Msg, St any](b *Builder, name Name, initial St, transition Transition[Msg, St]) BuildRef[Msg, St] {
	if _, exists := b.stages[name]; exists {
		violate("duplicate stage name %q", name)
	}
	erased := func(ctx context.Context, state State, msg Message, eff *Effects) (State, error) {
		typedState, _ := state.(St)
		typedMsg, _ := msg.(Msg)
		next, err := transition(ctx, typedState, typedMsg, eff)
		return next, err
	}
	b.stages[name] = &pendingStage{
		name:       name,
		capacity:   b.defaultCap,
		transition: erased,
		state:      initial,
	}
	b.order = append(b.order, name)
	return BuildRef[Msg, St]{name: name, state: initial}
}

// WireUp resolves build-time placeholders in a stage's state (typically
// Noop[Msg]() refs standing in for a peer that did not exist yet when
// Stage was called) by applying patch to the stage's stored initial
// state, then returns the now-addressable Ref.
func WireUp[Msg, St any](b *Builder, ref BuildRef[Msg, St], patch func(st *St)) Ref[Msg] {
	p := b.stages[ref.name]
	if p == nil {
		violate("WireUp: unknown stage %q", ref.name)
	}
	st, _ := p.state.(St)
	patch(&st)
	p.state = st
	p.wired = true
	return Ref[Msg]{name: ref.name}
}

// Run finalizes the graph: every registered stage must have been wired via
// WireUp, or Run panics naming the offending stage. Once that holds,
// mailboxes and goroutines are created and a ready-to-step Driver is
// returned.
func (b *Builder) Run() *Driver {
	names := make([]Name, len(b.order))
	copy(names, b.order)
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		if !b.stages[name].wired {
			violate("stage %q was never wired up", name)
		}
	}

	d := &Driver{
		stages: make(map[Name]*record, len(names)),
		order:  names,
		clock:  newVirtualClock(),
		log:    b.log,
	}
	for _, name := range names {
		p := b.stages[name]
		rec := newRecord(p.name, p.capacity, p.transition, p.state)
		d.stages[name] = rec
	}
	for _, name := range names {
		d.startStage(d.stages[name])
	}
	return d
}
