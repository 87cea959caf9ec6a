package stage

import (
	"github.com/stretchr/testify/require"
)

// AssertReceive fails t unless e is a ReceiveEffect for stage, mirroring
// the original's effect().assert_receive(&stage) doctest helper.
func AssertReceive(t require.TestingT, e Effect, stage Name) {
	re, ok := e.(ReceiveEffect)
	require.True(t, ok, "expected Receive effect, got %v", e)
	require.Equal(t, stage, re.Stage)
}

// AssertSend fails t unless e is a SendEffect from from to to, and
// returns the carried message for further assertions.
func AssertSend(t require.TestingT, e Effect, from, to Name) Message {
	se, ok := e.(SendEffect)
	require.True(t, ok, "expected Send effect, got %v", e)
	require.Equal(t, from, se.From)
	require.Equal(t, to, se.To)
	return se.Msg
}

// AssertInterrupt fails t unless e is an InterruptEffect for stage.
func AssertInterrupt(t require.TestingT, e Effect, stage Name) {
	ie, ok := e.(InterruptEffect)
	require.True(t, ok, "expected Interrupt effect, got %v", e)
	require.Equal(t, stage, ie.Stage)
}

// AssertWait fails t unless e is a WaitEffect for stage, and returns the
// requested duration.
func AssertWait(t require.TestingT, e Effect, stage Name) Duration {
	we, ok := e.(WaitEffect)
	require.True(t, ok, "expected Wait effect, got %v", e)
	require.Equal(t, stage, we.Stage)
	return we.For
}

// AssertIdle fails t unless err is ErrIdle, mirroring
// try_effect().unwrap_err().assert_idle().
func AssertIdle(t require.TestingT, err error) {
	require.ErrorIs(t, err, ErrIdle)
}
