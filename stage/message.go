package stage

// Message is any user value carried across a stage boundary. Effects are
// typed per edge at the call site (Ref[Msg], Send[Msg]) but erase to
// Message while crossing the airlock, exactly the way the builder erases
// per-stage state to an opaque value until the owning stage's transition
// downcasts it back.
type Message = any

// State is any user-supplied per-stage value threaded through every
// transition invocation.
type State = any
