package config

import "strings"

// Normalize canonicalizes names and fills values derived from other
// settings. Call it after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.RT.Policy = strings.ToLower(strings.TrimSpace(cfg.RT.Policy))
	cfg.Output.Driver = strings.ToLower(strings.TrimSpace(cfg.Output.Driver))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if cfg.Scheduler.OverrunThreshold == 0 {
		cfg.Scheduler.OverrunThreshold = cfg.Scheduler.PeriodNs
	}

	if len(cfg.Status.DeviceName) > 16 {
		cfg.Status.DeviceName = cfg.Status.DeviceName[:16]
	}
}
