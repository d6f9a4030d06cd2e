package core

import "sync/atomic"

const (
	// TimingRingSize is how many overruns are kept for post-mortem
	TimingRingSize = 32
)

// Overrun captures one late wake-up
type Overrun struct {
	Tick uint64 // Tick index at which the wake-up was late
	Late int64  // Lateness in nanoseconds
}

// TimingStats records wake-up lateness from the real-time thread.
// Observe never blocks or allocates. Counters are atomics so the status
// publisher can sample them mid-run; the ring is only valid after the
// real-time thread has been joined.
type TimingStats struct {
	threshold int64 // Lateness that counts as an overrun (ns)

	ticks    atomic.Uint64
	overruns atomic.Uint64
	maxLate  atomic.Int64

	ring     [TimingRingSize]Overrun
	ringHead uint32
}

// NewTimingStats counts any wake-up later than threshold ns as an overrun
func NewTimingStats(threshold int64) *TimingStats {
	return &TimingStats{threshold: threshold}
}

// Observe records the lateness of one wake-up
func (s *TimingStats) Observe(late int64) {
	tick := s.ticks.Add(1)

	if late > s.maxLate.Load() {
		s.maxLate.Store(late)
	}
	if late <= s.threshold {
		return
	}

	s.overruns.Add(1)
	s.ring[s.ringHead] = Overrun{Tick: tick, Late: late}
	s.ringHead = (s.ringHead + 1) % TimingRingSize
}

// Ticks returns the number of observed wake-ups
func (s *TimingStats) Ticks() uint64 {
	return s.ticks.Load()
}

// Overruns returns the number of wake-ups later than the threshold
func (s *TimingStats) Overruns() uint64 {
	return s.overruns.Load()
}

// MaxLate returns the worst lateness seen in nanoseconds
func (s *TimingStats) MaxLate() int64 {
	return s.maxLate.Load()
}

// RecentOverruns returns the captured overruns, oldest first
func (s *TimingStats) RecentOverruns() []Overrun {
	n := s.overruns.Load()
	if n > TimingRingSize {
		n = TimingRingSize
	}

	out := make([]Overrun, 0, n)
	start := (s.ringHead + TimingRingSize - uint32(n)) % TimingRingSize
	for i := uint32(0); i < uint32(n); i++ {
		out = append(out, s.ring[(start+i)%TimingRingSize])
	}
	return out
}
