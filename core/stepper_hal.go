package core

// Direction of a single step
type Direction uint8

const (
	CW  Direction = 0 // Clockwise (forward)
	CCW Direction = 1 // Counter-clockwise (backward)
)

func (d Direction) String() string {
	if d == CCW {
		return "ccw"
	}
	return "cw"
}

// StepOutput is the pulse side of the hardware abstraction.
// Implementations can drive a parallel port, GPIO, or a remote MCU.
type StepOutput interface {
	// Init prepares the output lines; must be called once before stepping
	Init() error

	// Step emits a single step pulse in the given direction.
	// Called from the real-time thread: must not allocate, log or block
	// on anything but the pulse itself.
	Step(dir Direction)

	// Close releases the output
	Close() error

	// Name returns the implementation name
	Name() string
}

// StepResult is what the motion controller reports for one compare interrupt
type StepResult uint8

const (
	NoAction     StepResult = 0 // Interrupt handled, no pulse emitted
	StepForward  StepResult = 1 // One pulse emitted clockwise
	StepBackward StepResult = 2 // One pulse emitted counter-clockwise
)

func (r StepResult) String() string {
	switch r {
	case StepForward:
		return "step-forward"
	case StepBackward:
		return "step-backward"
	default:
		return "no-action"
	}
}

// MotionController is interrupt-style motion code driven by the virtual timer.
// OnCompare is the compare-match interrupt handler.
type MotionController interface {
	OnCompare() StepResult
}

// MotionControllerFunc adapts a function to MotionController
type MotionControllerFunc func() StepResult

// OnCompare calls f
func (f MotionControllerFunc) OnCompare() StepResult {
	return f()
}
