// Package hwio grants and revokes direct access to a range of I/O ports.
// The core never touches ports itself; it is handed a PortIO capability.
package hwio

import (
	"errors"
	"fmt"
)

const (
	// DefaultBase is the first parallel port (LPT1) data register
	DefaultBase = 0x378

	// DefaultCount covers data, status, control and EPP address registers
	DefaultCount = 4
)

var ErrUnsupported = errors.New("direct port I/O is not supported on this platform")

// Range is a contiguous block of I/O ports
type Range struct {
	Base  uint16
	Count uint16
}

// DefaultRange returns the 4 ports at LPT1
func DefaultRange() Range {
	return Range{Base: DefaultBase, Count: DefaultCount}
}

func (r Range) String() string {
	return fmt.Sprintf("0x%x+%d", r.Base, r.Count)
}

// PortIO enables and disables access to a port range
type PortIO interface {
	Enable(r Range) error
	Disable(r Range) error
	Name() string
}

// Noop grants nothing and never fails. Used when the pulse output does not
// need port access.
type Noop struct{}

func (Noop) Enable(Range) error  { return nil }
func (Noop) Disable(Range) error { return nil }
func (Noop) Name() string        { return "none" }

// New returns the platform port access when enabled, Noop otherwise
func New(enabled bool) PortIO {
	if !enabled {
		return Noop{}
	}
	return platformPortIO()
}
