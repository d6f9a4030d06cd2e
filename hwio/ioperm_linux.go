//go:build linux && (amd64 || 386)

package hwio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Ioperm sets the ioperm(2) permission bitmap. The bitmap belongs to the
// calling thread, so callers lock their goroutine to its OS thread.
type Ioperm struct{}

func platformPortIO() PortIO {
	return Ioperm{}
}

// Enable sets the permission bits for r
func (Ioperm) Enable(r Range) error {
	if err := unix.Ioperm(int(r.Base), int(r.Count), 1); err != nil {
		return fmt.Errorf("ioperm %s on: %w", r, err)
	}
	return nil
}

// Disable clears the permission bits for r
func (Ioperm) Disable(r Range) error {
	if err := unix.Ioperm(int(r.Base), int(r.Count), 0); err != nil {
		return fmt.Errorf("ioperm %s off: %w", r, err)
	}
	return nil
}

func (Ioperm) Name() string { return "ioperm" }
