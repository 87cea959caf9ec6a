package stage

import "fmt"

// Effect is a suspension request a stage posts to the airlock. The
// concrete variants below are the only implementations; the interface
// exists so the driver can switch on the effect a stage is currently
// waiting on without boxing into a discriminated struct.
type Effect interface {
	isEffect()
	fmt.Stringer
}

// ReceiveEffect means the stage wants its next mailbox message. Every
// stage starts, and returns to, this effect between messages.
type ReceiveEffect struct {
	Stage Name
}

func (ReceiveEffect) isEffect()        {}
func (e ReceiveEffect) String() string { return fmt.Sprintf("Receive(%s)", e.Stage) }

// SendEffect means the stage wants to deliver Msg to To's mailbox.
type SendEffect struct {
	From Name
	To   Name
	Msg  Message
}

func (SendEffect) isEffect() {}
func (e SendEffect) String() string {
	return fmt.Sprintf("Send(%s->%s, %v)", e.From, e.To, e.Msg)
}

// InterruptEffect means the stage wants to halt the whole driver until
// explicitly resumed.
type InterruptEffect struct {
	Stage Name
}

func (InterruptEffect) isEffect()        {}
func (e InterruptEffect) String() string { return fmt.Sprintf("Interrupt(%s)", e.Stage) }

// WaitEffect means the stage wants virtual time to advance by For before it
// resumes.
type WaitEffect struct {
	Stage Name
	For   Duration
}

func (WaitEffect) isEffect()        {}
func (e WaitEffect) String() string { return fmt.Sprintf("Wait(%s, %s)", e.Stage, e.For) }

// clockEffect means the stage reads the current virtual time. It never
// escapes the driver: TryEffect resolves it inline and it is not part of
// the public Effect surface a caller can observe or resume.
type clockEffect struct {
	Stage Name
}

func (clockEffect) isEffect()        {}
func (e clockEffect) String() string { return fmt.Sprintf("Clock(%s)", e.Stage) }

// Response is what the driver feeds back into a suspended stage.
type Response interface {
	isResponse()
}

// UnitResponse acknowledges Send, Interrupt, and Wait effects.
type UnitResponse struct{}

func (UnitResponse) isResponse() {}

// MessageResponse delivers the next mailbox message in answer to Receive.
type MessageResponse struct {
	Msg Message
}

func (MessageResponse) isResponse() {}

// InstantResponse answers a Clock read.
type InstantResponse struct {
	At Instant
}

func (InstantResponse) isResponse() {}

func isUnit(r Response) bool {
	_, ok := r.(UnitResponse)
	return ok
}
