//go:build !linux

package core

import "time"

// MonotonicClock uses the Go runtime's monotonic clock on platforms without
// clock_nanosleep. Sleeps are relative, so jitter is whatever time.Sleep gives.
type MonotonicClock struct {
	epoch time.Time
}

// NewMonotonicClock returns the platform clock
func NewMonotonicClock() Clock {
	return &MonotonicClock{epoch: time.Now()}
}

// Now returns time elapsed since the clock was created
func (c *MonotonicClock) Now() Timespec {
	return TimespecFromNanos(int64(time.Since(c.epoch)))
}

// SleepUntil sleeps for the remaining time to deadline
func (c *MonotonicClock) SleepUntil(deadline Timespec) {
	if d := deadline.Sub(c.Now()); d > 0 {
		time.Sleep(time.Duration(d))
	}
}
