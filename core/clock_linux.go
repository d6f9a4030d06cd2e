//go:build linux

package core

import (
	"golang.org/x/sys/unix"
)

// timerAbstime is TIMER_ABSTIME for clock_nanosleep
const timerAbstime = 0x1

// MonotonicClock sleeps on CLOCK_MONOTONIC with absolute deadlines
type MonotonicClock struct{}

// NewMonotonicClock returns the platform clock
func NewMonotonicClock() Clock {
	return MonotonicClock{}
}

// Now reads CLOCK_MONOTONIC
func (MonotonicClock) Now() Timespec {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return Timespec{}
	}
	return TimespecFromNanos(ts.Nano())
}

// SleepUntil calls clock_nanosleep with TIMER_ABSTIME.
// A signal interrupts the sleep with EINTR; the absolute deadline is simply
// requested again.
func (MonotonicClock) SleepUntil(deadline Timespec) {
	req := unix.NsecToTimespec(deadline.Nanoseconds())
	for {
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, timerAbstime, &req, nil)
		if err != unix.EINTR {
			return
		}
	}
}
