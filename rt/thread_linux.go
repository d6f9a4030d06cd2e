//go:build linux

package rt

import (
	"golang.org/x/sys/unix"
)

func (p Policy) value() uint32 {
	switch p {
	case PolicyFIFO:
		return unix.SCHED_FIFO
	case PolicyRR:
		return unix.SCHED_RR
	default:
		return unix.SCHED_NORMAL
	}
}

// applyRequest configures the calling thread
func applyRequest(req SchedulingRequest) error {
	if req.CPU >= 0 {
		var set unix.CPUSet
		set.Zero()
		set.Set(req.CPU)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return setupError("setaffinity", err)
		}
	}

	if req.Inherit {
		return nil
	}

	attr := unix.SchedAttr{
		Policy: req.Policy.value(),
	}
	if req.Policy != PolicyOther {
		attr.Priority = uint32(req.Priority)
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return setupError("setschedparam", err)
	}
	return nil
}

// Mlock locks all current and future pages with mlockall(2)
type Mlock struct{}

// NewMemoryLocker returns the platform memory locker
func NewMemoryLocker() MemoryLocker {
	return Mlock{}
}

func (Mlock) Lock() error {
	return unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE)
}

func (Mlock) Unlock() error {
	return unix.Munlockall()
}
