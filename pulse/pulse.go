// Package pulse provides the step/direction outputs the speed controller
// pulses. Every driver implements core.StepOutput; Step runs on the
// real-time thread and must not allocate.
package pulse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"steprt/core"
)

// Driver names accepted by Open
const (
	DriverNull   = "null"
	DriverLPT    = "lpt"
	DriverRPIO   = "rpio"
	DriverSerial = "serial"
)

var ErrUnsupported = errors.New("pulse driver not supported on this platform")

// Config selects and parameterizes a driver
type Config struct {
	Driver string

	// lpt
	PortBase   uint16        // Data register address
	StepBit    uint8         // Data register bit for STEP
	DirBit     uint8         // Data register bit for DIR
	Invert     bool          // Active-low step and direction lines
	PulseWidth time.Duration // STEP high time

	// rpio
	StepPin   int
	DirPin    int
	EnablePin int // -1 when not wired

	// serial
	Device string
	Baud   int
}

// DefaultConfig counts steps without touching hardware
func DefaultConfig() Config {
	return Config{
		Driver:     DriverNull,
		PortBase:   0x378,
		StepBit:    0,
		DirBit:     1,
		PulseWidth: 2 * time.Microsecond,
		StepPin:    17,
		DirPin:     27,
		EnablePin:  -1,
		Device:     "/dev/ttyACM0",
		Baud:       250000,
	}
}

// NeedsPorts reports whether the driver writes I/O ports directly
func NeedsPorts(driver string) bool {
	return strings.EqualFold(driver, DriverLPT)
}

// Open builds the driver named by cfg.Driver. The output is not
// initialized; the caller runs Init once port access is granted.
func Open(cfg Config) (core.StepOutput, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverNull, "":
		return NewCounter(), nil
	case DriverLPT:
		if cfg.StepBit > 7 || cfg.DirBit > 7 || cfg.StepBit == cfg.DirBit {
			return nil, fmt.Errorf("lpt: invalid step/dir bits %d/%d", cfg.StepBit, cfg.DirBit)
		}
		return NewLPT(cfg.PortBase, cfg.StepBit, cfg.DirBit, cfg.Invert, cfg.PulseWidth), nil
	case DriverRPIO:
		if cfg.StepPin < 0 || cfg.DirPin < 0 || cfg.StepPin == cfg.DirPin {
			return nil, fmt.Errorf("rpio: invalid step/dir pins %d/%d", cfg.StepPin, cfg.DirPin)
		}
		return NewRPIO(cfg.StepPin, cfg.DirPin, cfg.EnablePin), nil
	case DriverSerial:
		return OpenSerial(cfg.Device, cfg.Baud)
	}
	return nil, fmt.Errorf("unknown pulse driver %q", cfg.Driver)
}

// spin busy-waits for d. Sleeping would hand the CPU back to the kernel
// for far longer than a pulse lasts.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
