package speedctl

import (
	"fmt"
	"math"
)

// Target is a move expressed in turn units
type Target struct {
	Turns float64 // Revolutions; negative moves counter-clockwise
	Accel float64 // turn/s²
	Decel float64 // turn/s²
	Speed float64 // turn/s
}

// DeviceMove is a Target converted to the units Move takes
type DeviceMove struct {
	Steps int32  // Signed step count
	Accel uint32 // 0.01 rad/s²
	Decel uint32 // 0.01 rad/s²
	Speed uint32 // 0.01 rad/s
}

// Requested returns the absolute number of steps the move emits
func (m DeviceMove) Requested() uint32 {
	if m.Steps < 0 {
		return uint32(-int64(m.Steps))
	}
	return uint32(m.Steps)
}

// Convert scales t with stepsPerRev and OneTurn, truncating like the
// integer registers the ramp math works on.
func (t Target) Convert(stepsPerRev uint32) (DeviceMove, error) {
	if stepsPerRev == 0 {
		stepsPerRev = DefaultStepsPerRev
	}

	steps := t.Turns * float64(stepsPerRev)
	if math.IsNaN(steps) || math.Abs(steps) > math.MaxInt32 {
		return DeviceMove{}, fmt.Errorf("turns %v out of range", t.Turns)
	}

	m := DeviceMove{Steps: int32(steps)}
	var err error
	if m.Accel, err = scaleRate("acceleration", t.Accel); err != nil {
		return DeviceMove{}, err
	}
	if m.Decel, err = scaleRate("deceleration", t.Decel); err != nil {
		return DeviceMove{}, err
	}
	if m.Speed, err = scaleRate("speed", t.Speed); err != nil {
		return DeviceMove{}, err
	}
	return m, nil
}

func scaleRate(name string, v float64) (uint32, error) {
	scaled := v * OneTurn
	if math.IsNaN(scaled) || scaled < 1 || scaled > math.MaxUint32 {
		return 0, fmt.Errorf("%s %v out of range", name, v)
	}
	return uint32(scaled), nil
}

// Start converts t and begins the move on c
func (c *Controller) Start(t Target, stepsPerRev uint32) (DeviceMove, error) {
	m, err := t.Convert(stepsPerRev)
	if err != nil {
		return DeviceMove{}, err
	}
	if err := c.Move(m.Steps, m.Accel, m.Decel, m.Speed); err != nil {
		return DeviceMove{}, err
	}
	return m, nil
}
