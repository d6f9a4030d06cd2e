package pulse

import (
	"fmt"
	"time"

	"steprt/core"
)

// portWriter writes one byte to an I/O port
type portWriter interface {
	WritePort(port uint16, v byte) error
	Close() error
}

// LPT drives step and direction from bits of a parallel port data register
type LPT struct {
	base       uint16
	stepMask   byte
	dirMask    byte
	invert     bool
	pulseWidth time.Duration

	port    portWriter
	open    func() (portWriter, error)
	data    byte
	lastDir core.Direction
	errors  uint64
}

// NewLPT creates a parallel port output at base
func NewLPT(base uint16, stepBit, dirBit uint8, invert bool, pulseWidth time.Duration) *LPT {
	return &LPT{
		base:       base,
		stepMask:   1 << stepBit,
		dirMask:    1 << dirBit,
		invert:     invert,
		pulseWidth: pulseWidth,
		open:       openPort,
	}
}

func (l *LPT) Init() error {
	p, err := l.open()
	if err != nil {
		return fmt.Errorf("lpt: %w", err)
	}
	l.port = p
	l.data = 0
	l.lastDir = core.CW
	return l.write()
}

// Step sets DIR, raises STEP for the pulse width and lowers it again
func (l *LPT) Step(dir core.Direction) {
	if l.port == nil {
		return
	}

	if dir == core.CCW {
		l.data |= l.dirMask
	} else {
		l.data &^= l.dirMask
	}
	if dir != l.lastDir {
		l.lastDir = dir
		l.write()
	}

	l.data |= l.stepMask
	l.write()
	spin(l.pulseWidth)
	l.data &^= l.stepMask
	l.write()
}

func (l *LPT) write() error {
	v := l.data
	if l.invert {
		v ^= l.stepMask | l.dirMask
	}
	if err := l.port.WritePort(l.base, v); err != nil {
		l.errors++
		return err
	}
	return nil
}

// Close drives all lines inactive and releases the port
func (l *LPT) Close() error {
	if l.port == nil {
		return nil
	}
	l.data = 0
	werr := l.write()
	cerr := l.port.Close()
	l.port = nil
	if werr != nil {
		return fmt.Errorf("lpt: reset lines: %w", werr)
	}
	return cerr
}

func (l *LPT) Name() string { return DriverLPT }

// Errors returns the number of failed port writes
func (l *LPT) Errors() uint64 {
	return l.errors
}
