//go:build linux

package pulse

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"

	"steprt/core"
)

// RPIO drives a step/dir stepper driver from Raspberry Pi GPIO
type RPIO struct {
	step   rpio.Pin
	dir    rpio.Pin
	enable rpio.Pin

	hasEnable bool
	lastDir   core.Direction
	opened    bool
}

// NewRPIO uses BCM pin numbers. enablePin < 0 means no enable line.
func NewRPIO(stepPin, dirPin, enablePin int) *RPIO {
	r := &RPIO{
		step: rpio.Pin(stepPin),
		dir:  rpio.Pin(dirPin),
	}
	if enablePin >= 0 {
		r.enable = rpio.Pin(enablePin)
		r.hasEnable = true
	}
	return r
}

func (r *RPIO) Init() error {
	if err := rpio.Open(); err != nil {
		return fmt.Errorf("rpio: %w", err)
	}
	r.opened = true

	r.step.Output()
	r.step.Low()
	r.dir.Output()
	r.dir.Low()
	r.lastDir = core.CW

	// Driver enable is active low
	if r.hasEnable {
		r.enable.Output()
		r.enable.Low()
	}
	return nil
}

func (r *RPIO) Step(dir core.Direction) {
	if !r.opened {
		return
	}
	if dir != r.lastDir {
		if dir == core.CCW {
			r.dir.High()
		} else {
			r.dir.Low()
		}
		r.lastDir = dir
	}
	r.step.High()
	r.step.Low()
}

func (r *RPIO) Close() error {
	if !r.opened {
		return nil
	}
	r.step.Low()
	if r.hasEnable {
		r.enable.High()
	}
	r.opened = false
	return rpio.Close()
}

func (r *RPIO) Name() string { return DriverRPIO }
