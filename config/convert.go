package config

import (
	"time"

	"steprt/hwio"
	"steprt/pulse"
	"steprt/rt"
	"steprt/speedctl"
)

// Target returns the move in turn units
func (c *Config) Target() speedctl.Target {
	return speedctl.Target{
		Turns: c.Motion.Turns,
		Accel: c.Motion.Accel,
		Decel: c.Motion.Decel,
		Speed: c.Motion.Speed,
	}
}

// SchedulingRequest builds the request for the real-time thread
func (c *Config) SchedulingRequest() (rt.SchedulingRequest, error) {
	policy, err := rt.ParsePolicy(c.RT.Policy)
	if err != nil {
		return rt.SchedulingRequest{}, err
	}

	req := rt.SchedulingRequest{
		Priority:  c.RT.Priority,
		Policy:    policy,
		StackSize: c.RT.StackSize,
		Inherit:   c.RT.Inherit,
		CPU:       c.RT.CPU,
	}
	if policy == rt.PolicyOther {
		req.Priority = 0
	}
	return req, nil
}

// PortRange is the I/O port block granted for the run
func (c *Config) PortRange() hwio.Range {
	return hwio.Range{Base: c.Port.Base, Count: c.Port.Count}
}

// PortEnabled reports whether port access is requested. When unset it
// follows the output driver.
func (c *Config) PortEnabled() bool {
	if c.Port.Enabled != nil {
		return *c.Port.Enabled
	}
	return pulse.NeedsPorts(c.Output.Driver)
}

// Pulse returns the output driver configuration. The lpt data register
// is the first port of the range.
func (c *Config) Pulse() pulse.Config {
	return pulse.Config{
		Driver:     c.Output.Driver,
		PortBase:   c.Port.Base,
		StepBit:    c.Output.StepBit,
		DirBit:     c.Output.DirBit,
		Invert:     c.Output.Invert,
		PulseWidth: time.Duration(c.Output.PulseWidthNs),
		StepPin:    c.Output.StepPin,
		DirPin:     c.Output.DirPin,
		EnablePin:  c.Output.EnablePin,
		Device:     c.Output.Device,
		Baud:       c.Output.Baud,
	}
}

// Period is the scheduler period
func (c *Config) Period() time.Duration {
	return time.Duration(c.Scheduler.PeriodNs)
}

// ReadyTimeout bounds the wait for the real-time thread to start
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Scheduler.ReadyTimeoutMs) * time.Millisecond
}
