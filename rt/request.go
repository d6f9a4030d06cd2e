// Package rt describes how the cyclic task must be scheduled and applies it
// to a dedicated OS thread.
package rt

import (
	"fmt"
	"strings"
	"syscall"
)

const (
	// DefaultPriority for the cyclic thread on the 1-99 real-time scale
	DefaultPriority = 80

	// MinStackSize matches PTHREAD_STACK_MIN on Linux
	MinStackSize = 16384

	minRTPriority = 1
	maxRTPriority = 99

	stackChunk = 1024
)

// Policy is a scheduling class
type Policy int

const (
	PolicyOther Policy = iota // Time-sharing (SCHED_OTHER)
	PolicyFIFO                // Fixed priority, run to block (SCHED_FIFO)
	PolicyRR                  // Fixed priority, round robin (SCHED_RR)
)

func (p Policy) String() string {
	switch p {
	case PolicyFIFO:
		return "fifo"
	case PolicyRR:
		return "rr"
	default:
		return "other"
	}
}

// ParsePolicy accepts fifo, rr or other (case-insensitive)
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo", "sched_fifo":
		return PolicyFIFO, nil
	case "rr", "sched_rr":
		return PolicyRR, nil
	case "other", "sched_other", "":
		return PolicyOther, nil
	}
	return PolicyOther, fmt.Errorf("unknown scheduling policy %q", s)
}

// SchedulingRequest is what the cyclic thread needs from the OS
type SchedulingRequest struct {
	Priority  int    // Real-time priority (ignored for PolicyOther)
	Policy    Policy // Scheduling class
	StackSize int    // Bytes of stack committed before the task runs
	Inherit   bool   // Keep the launcher's scheduling instead of Policy/Priority
	CPU       int    // Pin to this CPU; -1 leaves affinity alone
}

// DefaultRequest is SCHED_FIFO at priority 80 with a minimum-size stack
func DefaultRequest() SchedulingRequest {
	return SchedulingRequest{
		Priority:  DefaultPriority,
		Policy:    PolicyFIFO,
		StackSize: MinStackSize,
		Inherit:   false,
		CPU:       -1,
	}
}

func (r SchedulingRequest) String() string {
	if r.Inherit {
		return fmt.Sprintf("inherit stack=%d cpu=%d", r.StackSize, r.CPU)
	}
	return fmt.Sprintf("%s/%d stack=%d cpu=%d", r.Policy, r.Priority, r.StackSize, r.CPU)
}

// Validate checks the request the way pthread attribute setters would,
// reporting the first attribute that is rejected.
func (r SchedulingRequest) Validate() error {
	if r.StackSize < MinStackSize {
		return &SetupError{Step: "setstacksize", Errno: syscall.EINVAL}
	}
	if r.Policy < PolicyOther || r.Policy > PolicyRR {
		return &SetupError{Step: "setschedpolicy", Errno: syscall.EINVAL}
	}
	if r.Inherit {
		return nil
	}
	if r.Policy == PolicyOther {
		if r.Priority != 0 {
			return &SetupError{Step: "setschedparam", Errno: syscall.EINVAL}
		}
	} else if r.Priority < minRTPriority || r.Priority > maxRTPriority {
		return &SetupError{Step: "setschedparam", Errno: syscall.EINVAL}
	}
	if r.CPU < -1 {
		return &SetupError{Step: "setaffinity", Errno: syscall.EINVAL}
	}
	return nil
}

// SetupError reports which thread setup step failed and the OS error code
type SetupError struct {
	Step  string
	Errno syscall.Errno
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("thread %s failed: %v", e.Step, e.Errno)
}

func (e *SetupError) Unwrap() error {
	return e.Errno
}

// Code is the OS error number, used as the process exit code
func (e *SetupError) Code() int {
	return int(e.Errno)
}

func setupError(step string, err error) error {
	if errno, ok := err.(syscall.Errno); ok {
		return &SetupError{Step: step, Errno: errno}
	}
	return fmt.Errorf("thread %s failed: %w", step, err)
}

var stackSink byte

// growStack forces the calling goroutine's stack to at least n bytes so
// the task never hits a stack copy mid-loop.
//
//go:noinline
func growStack(n int) {
	var chunk [stackChunk]byte
	chunk[n%stackChunk] = byte(n)
	if n > stackChunk {
		growStack(n - stackChunk)
	}
	stackSink += chunk[(n/2)%stackChunk]
}
