//go:build !linux

package rt

import "syscall"

// applyRequest can only honour inherited scheduling here
func applyRequest(req SchedulingRequest) error {
	if req.CPU >= 0 {
		return &SetupError{Step: "setaffinity", Errno: syscall.ENOTSUP}
	}
	if !req.Inherit {
		return &SetupError{Step: "setschedpolicy", Errno: syscall.ENOTSUP}
	}
	return nil
}

// NoMlock cannot lock memory on this platform
type NoMlock struct{}

// NewMemoryLocker returns the platform memory locker
func NewMemoryLocker() MemoryLocker {
	return NoMlock{}
}

func (NoMlock) Lock() error   { return syscall.ENOTSUP }
func (NoMlock) Unlock() error { return nil }
