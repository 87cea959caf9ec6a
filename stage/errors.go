package stage

import (
	"errors"
	"fmt"
)

// ErrIdle is returned by TryEffect when no stage is runnable.
var ErrIdle = errors.New("stage: no runnable stage")

// ProtocolViolation marks a programmer error in driving the simulation:
// resuming the wrong effect, posting two effects before one is taken,
// wiring two stages under one name, or forgetting to wire one up. These are
// never recoverable; callers are expected to let them panic rather than
// handle them, the same way the teacher's Kripke graph panics on a
// duplicate state name.
type ProtocolViolation struct {
	Msg string
}

func (e *ProtocolViolation) Error() string { return "stage: protocol violation: " + e.Msg }

func violate(format string, args ...any) {
	panic(&ProtocolViolation{Msg: fmt.Sprintf(format, args...)})
}
