package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// Shutdown is the cooperative cancellation token shared by the launcher and
// the real-time thread. One writer (the signal handler) calls Cancel; the
// cyclic task polls Running once per tick.
type Shutdown struct {
	cancelled atomic.Bool
}

// NewShutdown returns a token in the running state
func NewShutdown() *Shutdown {
	return &Shutdown{}
}

// Cancel requests shutdown. Safe to call more than once.
func (s *Shutdown) Cancel() {
	s.cancelled.Store(true)
}

// Running reports whether shutdown has not been requested
func (s *Shutdown) Running() bool {
	return !s.cancelled.Load()
}

// Latch is a one-shot readiness signal
type Latch struct {
	once sync.Once
	ch   chan struct{}
}

// NewLatch returns an unsignalled latch
func NewLatch() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Signal releases all waiters. Only the first call has an effect.
func (l *Latch) Signal() {
	l.once.Do(func() { close(l.ch) })
}

// Done returns a channel closed once the latch is signalled
func (l *Latch) Done() <-chan struct{} {
	return l.ch
}

// Wait blocks until the latch is signalled or timeout expires.
// Returns false on timeout.
func (l *Latch) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.ch:
		return true
	case <-timer.C:
		return false
	}
}
