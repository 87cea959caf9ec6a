package stage

import (
	"sync/atomic"
	"time"
)

// Duration is a span of virtual time, in nanoseconds.
type Duration = time.Duration

// Instant is an opaque point in virtual time. It never advances except in
// response to a Wait effect being resumed.
type Instant struct {
	nanos int64
}

// Sub returns the virtual duration elapsed between other and i.
func (i Instant) Sub(other Instant) Duration {
	return time.Duration(i.nanos - other.nanos)
}

func (i Instant) String() string {
	return time.Duration(i.nanos).String()
}

// virtualClock is a monotonic counter advanced only by explicit Wait
// effects. Reads are lock-free; writes happen only inside the Driver while
// processing resumeWait.
type virtualClock struct {
	nanos atomic.Int64
}

func newVirtualClock() *virtualClock {
	return &virtualClock{}
}

func (c *virtualClock) now() Instant {
	return Instant{nanos: c.nanos.Load()}
}

// advance moves the clock forward by at least d, returning the new instant.
// Concurrent waits are serialized by the Driver (only one stage is ever
// being stepped at a time), so each call simply adds its own requested
// delta on top of whatever the clock currently reads - it does not attempt
// to coalesce with any other in-flight wait.
func (c *virtualClock) advance(d Duration) Instant {
	n := c.nanos.Add(int64(d))
	return Instant{nanos: n}
}
