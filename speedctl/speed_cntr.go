// Package speedctl implements a trapezoidal speed ramp in the style of Atmel
// AVR446 "Linear speed control of stepper motor". It is written against a
// compare-match timer: Move programs the compare register and starts the
// timer, and OnCompare is the compare interrupt handler that emits one step
// and reprograms the next delay.
package speedctl

import (
	"errors"
	"fmt"
	"math"

	"steprt/core"
)

const (
	// OneTurn is one revolution in device angle units (0.01 rad)
	OneTurn = 2 * 3.1416 * 100

	// DefaultStepsPerRev is a 1.8° full-step motor
	DefaultStepsPerRev = 200

	// firstCompare is the delay before the first step of a move (timer ticks)
	firstCompare = 10

	// singleStepDelay is the step delay used for one-step moves
	singleStepDelay = 1000
)

var (
	ErrInvalidProfile = errors.New("acceleration, deceleration and speed must be positive")
	ErrNoTimer        = errors.New("speed controller requires a timer")
	ErrTimerFrequency = errors.New("timer frequency must be positive")
)

type runState uint8

const (
	stateStop runState = iota
	stateAccel
	stateDecel
	stateRun
)

func (s runState) String() string {
	switch s {
	case stateAccel:
		return "accel"
	case stateDecel:
		return "decel"
	case stateRun:
		return "run"
	default:
		return "stop"
	}
}

// Profile fixes the constants of the ramp math
type Profile struct {
	TimerFreq   float64 // Compare timer tick rate (Hz)
	StepsPerRev uint32  // Full steps per revolution
}

// Controller holds the speed ramp data and the interrupt-local counters
type Controller struct {
	timer *core.VirtualTimer
	out   core.StepOutput

	// Constants derived from Profile
	aTx100    int64 // alpha*timerFreq*100
	t1Freq148 int64 // timerFreq*0.676/100
	aSq       int64 // alpha*2*1e10
	ax20000   int64 // alpha*20000

	state      runState
	dir        core.Direction
	stepDelay  int64 // Delay of the next step (timer ticks)
	decelStart int64 // Step at which deceleration begins
	decelVal   int64 // Negative number of deceleration steps
	minDelay   int64 // Delay at cruise speed
	accelCount int64 // Ramp position, negative while decelerating

	stepCount      int64
	rest           int64
	lastAccelDelay int64
	running        bool
	position       int64
}

// New creates a controller programming timer and pulsing out.
// out may be nil, in which case steps are only counted.
func New(timer *core.VirtualTimer, out core.StepOutput, p Profile) (*Controller, error) {
	if timer == nil {
		return nil, ErrNoTimer
	}
	if p.TimerFreq <= 0 {
		return nil, ErrTimerFrequency
	}
	if p.StepsPerRev == 0 {
		p.StepsPerRev = DefaultStepsPerRev
	}

	alpha := 2 * 3.14159 / float64(p.StepsPerRev)

	return &Controller{
		timer:     timer,
		out:       out,
		aTx100:    int64(alpha * p.TimerFreq * 100),
		t1Freq148: int64((p.TimerFreq * 0.676) / 100),
		aSq:       int64(alpha * 2 * 10000000000),
		ax20000:   int64(alpha * 20000),
	}, nil
}

// Init stops the timer and the ramp. Must be called before Move.
func (c *Controller) Init() {
	c.state = stateStop
	c.running = false
	c.stepCount = 0
	c.rest = 0
	c.timer.Reset()
}

// Move starts a move of step steps (negative = counter-clockwise).
// accel and decel are in 0.01 rad/s², speed in 0.01 rad/s.
func (c *Controller) Move(step int32, accel, decel, speed uint32) error {
	if accel == 0 || decel == 0 || speed == 0 {
		return ErrInvalidProfile
	}

	steps := int64(step)
	if steps < 0 {
		c.dir = core.CCW
		steps = -steps
	} else {
		c.dir = core.CW
	}

	switch {
	case steps == 0:
		return nil

	case steps == 1:
		c.accelCount = -1
		c.state = stateDecel
		c.stepDelay = singleStepDelay

	default:
		c.minDelay = c.aTx100 / int64(speed)
		if c.minDelay < 1 {
			c.minDelay = 1
		}

		// Delay of the first step sets the initial acceleration
		c.stepDelay = int64(float64(c.t1Freq148)*math.Sqrt(float64(c.aSq/int64(accel)))) / 100

		// Steps to reach cruise speed
		div := (c.ax20000 * int64(accel)) / 100
		if div == 0 {
			div = 1
		}
		maxSLim := int64(speed) * int64(speed) / div
		if maxSLim == 0 {
			maxSLim = 1
		}

		// Step where deceleration would have to begin without a cruise phase
		accelLim := steps * int64(decel) / (int64(accel) + int64(decel))
		if accelLim == 0 {
			accelLim = 1
		}

		if accelLim <= maxSLim {
			c.decelVal = accelLim - steps
		} else {
			c.decelVal = -(maxSLim * int64(accel)) / int64(decel)
		}
		if c.decelVal == 0 {
			c.decelVal = -1
		}
		c.decelStart = steps + c.decelVal

		if c.stepDelay <= c.minDelay {
			c.stepDelay = c.minDelay
			c.lastAccelDelay = c.minDelay
			c.state = stateRun
		} else {
			c.state = stateAccel
		}
		c.accelCount = 0
	}

	c.stepCount = 0
	c.rest = 0
	c.running = true
	c.timer.SetCompare(firstCompare)
	c.timer.Enable()
	return nil
}

// OnCompare is the compare-match interrupt handler
func (c *Controller) OnCompare() core.StepResult {
	c.timer.SetCompare(uint32(c.stepDelay))

	newDelay := c.stepDelay
	result := core.NoAction

	switch c.state {
	case stateStop:
		c.stepCount = 0
		c.rest = 0
		c.timer.Disable()
		c.running = false

	case stateAccel:
		result = c.step()
		c.accelCount++
		newDelay = c.stepDelay - (2*c.stepDelay+c.rest)/(4*c.accelCount+1)
		c.rest = (2*c.stepDelay + c.rest) % (4*c.accelCount + 1)

		if c.stepCount >= c.decelStart {
			c.accelCount = c.decelVal
			c.state = stateDecel
		} else if newDelay <= c.minDelay {
			c.lastAccelDelay = newDelay
			newDelay = c.minDelay
			c.rest = 0
			c.state = stateRun
		}

	case stateRun:
		result = c.step()
		newDelay = c.minDelay

		if c.stepCount >= c.decelStart {
			c.accelCount = c.decelVal
			newDelay = c.lastAccelDelay
			c.state = stateDecel
		}

	case stateDecel:
		result = c.step()
		c.accelCount++

		if c.accelCount < 0 {
			newDelay = c.stepDelay - (2*c.stepDelay+c.rest)/(4*c.accelCount+1)
			c.rest = (2*c.stepDelay + c.rest) % (4*c.accelCount + 1)
		} else {
			c.state = stateStop
		}
	}

	if newDelay < 1 {
		newDelay = 1
	}
	c.stepDelay = newDelay
	return result
}

func (c *Controller) step() core.StepResult {
	c.stepCount++
	if c.out != nil {
		c.out.Step(c.dir)
	}

	if c.dir == core.CCW {
		c.position--
		return core.StepBackward
	}
	c.position++
	return core.StepForward
}

// Running reports whether a move is in progress
func (c *Controller) Running() bool {
	return c.running
}

// Position returns the signed step position
func (c *Controller) Position() int64 {
	return c.position
}

// StepDelay returns the delay programmed for the next step
func (c *Controller) StepDelay() uint32 {
	return uint32(c.stepDelay)
}

// MinDelay returns the cruise delay of the current move
func (c *Controller) MinDelay() uint32 {
	return uint32(c.minDelay)
}

// String describes the ramp state for diagnostics
func (c *Controller) String() string {
	return fmt.Sprintf("state=%s dir=%s delay=%d min=%d decel_start=%d decel_val=%d",
		c.state, c.dir, c.stepDelay, c.minDelay, c.decelStart, c.decelVal)
}
