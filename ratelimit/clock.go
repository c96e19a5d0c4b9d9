package ratelimit

import "time"

// Clock abstracts wall-clock access so tests can drive the limiter with a
// synthetic timeline, the way the teacher injects roughtime.Now() and
// serroba-rate's GCRALimiter takes a clock interface.
type Clock interface {
	Now() time.Time
}

// realClock is the default Clock, backed by the system monotonic clock.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
