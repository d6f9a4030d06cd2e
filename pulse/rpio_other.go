//go:build !linux

package pulse

import "steprt/core"

// RPIO is only available on Linux
type RPIO struct{}

func NewRPIO(stepPin, dirPin, enablePin int) *RPIO {
	return &RPIO{}
}

func (r *RPIO) Init() error         { return ErrUnsupported }
func (r *RPIO) Step(core.Direction) {}
func (r *RPIO) Close() error        { return nil }
func (r *RPIO) Name() string        { return DriverRPIO }
