package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-hclog"

	"steprt/pulse"
	"steprt/rt"
)

// Validate checks configuration correctness.
// It does not mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// MOTION
	// ------------------------------------------------------------
	m := cfg.Motion
	if math.IsNaN(m.Turns) || math.IsInf(m.Turns, 0) {
		return fmt.Errorf("motion: turns must be a finite number")
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"accel", m.Accel},
		{"decel", m.Decel},
		{"speed", m.Speed},
	} {
		if !(v.val > 0) || math.IsInf(v.val, 0) {
			return fmt.Errorf("motion: %s must be positive, got %v", v.name, v.val)
		}
	}
	if m.StepsPerRev == 0 {
		return fmt.Errorf("motion: steps_per_rev must be positive")
	}
	if _, err := cfg.Target().Convert(m.StepsPerRev); err != nil {
		return fmt.Errorf("motion: %w", err)
	}

	// ------------------------------------------------------------
	// SCHEDULER
	// ------------------------------------------------------------
	if cfg.Scheduler.PeriodNs <= 0 {
		return fmt.Errorf("scheduler: period_ns must be positive, got %d", cfg.Scheduler.PeriodNs)
	}
	if cfg.Scheduler.OverrunThreshold < 0 {
		return fmt.Errorf("scheduler: overrun_threshold_ns must not be negative")
	}
	if cfg.Scheduler.ReadyTimeoutMs <= 0 {
		return fmt.Errorf("scheduler: ready_timeout_ms must be positive")
	}

	// ------------------------------------------------------------
	// REAL-TIME THREAD
	// ------------------------------------------------------------
	if _, err := rt.ParsePolicy(cfg.RT.Policy); err != nil {
		return fmt.Errorf("rt: %w", err)
	}
	if cfg.RT.StackSize < rt.MinStackSize {
		return fmt.Errorf("rt: stack_size must be at least %d, got %d", rt.MinStackSize, cfg.RT.StackSize)
	}
	if cfg.RT.CPU < -1 {
		return fmt.Errorf("rt: cpu must be -1 or a CPU index, got %d", cfg.RT.CPU)
	}

	// ------------------------------------------------------------
	// PORT / OUTPUT
	// ------------------------------------------------------------
	if cfg.Port.Count == 0 {
		return fmt.Errorf("port: count must be positive")
	}
	if int(cfg.Port.Base)+int(cfg.Port.Count) > 0x10000 {
		return fmt.Errorf("port: range 0x%x+%d exceeds the I/O space", cfg.Port.Base, cfg.Port.Count)
	}

	switch strings.ToLower(cfg.Output.Driver) {
	case pulse.DriverNull, pulse.DriverLPT, pulse.DriverRPIO, pulse.DriverSerial:
	default:
		return fmt.Errorf("output: unknown driver %q", cfg.Output.Driver)
	}
	if pulse.NeedsPorts(cfg.Output.Driver) && !cfg.PortEnabled() {
		return fmt.Errorf("output: driver %q writes I/O ports and needs port.enabled", cfg.Output.Driver)
	}
	if cfg.Output.PulseWidthNs < 0 {
		return fmt.Errorf("output: pulse_width_ns must not be negative")
	}

	// ------------------------------------------------------------
	// STATUS (OPT-IN)
	// ------------------------------------------------------------
	if cfg.Status.Endpoint != "" {
		if cfg.Status.IntervalMs <= 0 {
			return fmt.Errorf("status: interval_ms must be positive")
		}
		for i := 0; i < len(cfg.Status.DeviceName); i++ {
			if cfg.Status.DeviceName[i] > 0x7F {
				return fmt.Errorf("status: device_name must contain ASCII characters only")
			}
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------
	if hclog.LevelFromString(cfg.Log.Level) == hclog.NoLevel {
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
