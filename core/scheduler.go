package core

import "time"

const (
	// DefaultPeriod is the scheduler tick period: 217us ≈ 4.6kHz
	DefaultPeriod = 217000 * time.Nanosecond

	nsecPerSec = 1000000000
)

// Timespec is an absolute point on the monotonic clock
type Timespec struct {
	Sec  int64
	Nsec int64 // Always in [0, 1e9)
}

// Add returns ts advanced by ns nanoseconds, carrying nsec overflow into sec
func (ts Timespec) Add(ns int64) Timespec {
	ts.Nsec += ns
	for ts.Nsec >= nsecPerSec {
		ts.Sec++
		ts.Nsec -= nsecPerSec
	}
	for ts.Nsec < 0 {
		ts.Sec--
		ts.Nsec += nsecPerSec
	}
	return ts
}

// Sub returns ts-other in nanoseconds
func (ts Timespec) Sub(other Timespec) int64 {
	return (ts.Sec-other.Sec)*nsecPerSec + (ts.Nsec - other.Nsec)
}

// Nanoseconds returns ts as a single nanosecond count
func (ts Timespec) Nanoseconds() int64 {
	return ts.Sec*nsecPerSec + ts.Nsec
}

// TimespecFromNanos splits a nanosecond count into a Timespec
func TimespecFromNanos(ns int64) Timespec {
	return Timespec{}.Add(ns)
}

// Clock is the monotonic time source the scheduler sleeps on.
// Platform implementations live in clock_*.go; tests inject a fake.
type Clock interface {
	// Now returns the current monotonic time
	Now() Timespec

	// SleepUntil blocks until the clock reaches the absolute deadline.
	// Returns immediately if the deadline is already in the past.
	SleepUntil(deadline Timespec)
}

// Scheduler produces absolute wake-up deadlines at a fixed period.
// Deadlines come from the fixed schedule, never from now+period, so a late
// wake-up does not shift the following ticks and the average period holds.
type Scheduler struct {
	clock  Clock
	period int64
	next   Timespec
	stats  *TimingStats
}

// NewScheduler creates a scheduler on clock with the given period
func NewScheduler(clock Clock, period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		clock:  clock,
		period: int64(period),
	}
}

// SetStats attaches a lateness recorder; nil disables recording
func (s *Scheduler) SetStats(stats *TimingStats) {
	s.stats = stats
}

// Period returns the tick period
func (s *Scheduler) Period() time.Duration {
	return time.Duration(s.period)
}

// Init captures the current time as the first deadline
func (s *Scheduler) Init() {
	s.next = s.clock.Now()
}

// Deadline returns the most recent deadline
func (s *Scheduler) Deadline() Timespec {
	return s.next
}

// WaitNext advances the deadline by one period and sleeps until it
func (s *Scheduler) WaitNext() {
	s.next = s.next.Add(s.period)
	s.clock.SleepUntil(s.next)

	if s.stats != nil {
		s.stats.Observe(s.clock.Now().Sub(s.next))
	}
}
