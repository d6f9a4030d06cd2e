package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"steprt/hwio"
	"steprt/rt"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := cfg.SchedulingRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req != rt.DefaultRequest() {
		t.Errorf("expected default request %+v, got %+v", rt.DefaultRequest(), req)
	}
	if cfg.PortRange() != hwio.DefaultRange() {
		t.Errorf("expected default port range, got %s", cfg.PortRange())
	}
	if cfg.PortEnabled() {
		t.Error("null output should not request port access")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
motion:
  turns: -2.5
  speed: 3
rt:
  policy: RR
  cpu: 2
output:
  driver: LPT
status:
  endpoint: 127.0.0.1:502
  device_name: a-very-long-device-name
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	Normalize(cfg)

	if cfg.Motion.Turns != -2.5 || cfg.Motion.Speed != 3 {
		t.Errorf("expected motion overrides, got %+v", cfg.Motion)
	}
	if cfg.Motion.Accel != 1 || cfg.Motion.StepsPerRev != 200 {
		t.Errorf("expected defaults kept, got %+v", cfg.Motion)
	}
	if cfg.RT.Policy != "rr" || cfg.RT.CPU != 2 {
		t.Errorf("unexpected rt section: %+v", cfg.RT)
	}
	if cfg.Output.Driver != "lpt" || !cfg.PortEnabled() {
		t.Errorf("expected lpt output with port access, got %q", cfg.Output.Driver)
	}
	if cfg.Status.DeviceName != "a-very-long-devi" {
		t.Errorf("expected device name truncated, got %q", cfg.Status.DeviceName)
	}
	if cfg.Scheduler.OverrunThreshold != cfg.Scheduler.PeriodNs {
		t.Errorf("expected overrun threshold of one period, got %d", cfg.Scheduler.OverrunThreshold)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Motion.Turns != 5 {
		t.Errorf("expected defaults, got %+v", cfg.Motion)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("motion:\n  turn: 3\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steprt.yaml")
	if err := os.WriteFile(path, []byte("port:\n  enabled: true\noutput:\n  driver: null\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.PortEnabled() {
		t.Error("explicit port.enabled=true must win over the driver")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		mod  func(c *Config)
		want string
	}{
		{"zero accel", func(c *Config) { c.Motion.Accel = 0 }, "accel"},
		{"negative speed", func(c *Config) { c.Motion.Speed = -1 }, "speed"},
		{"zero steps per rev", func(c *Config) { c.Motion.StepsPerRev = 0 }, "steps_per_rev"},
		{"zero period", func(c *Config) { c.Scheduler.PeriodNs = 0 }, "period_ns"},
		{"zero ready timeout", func(c *Config) { c.Scheduler.ReadyTimeoutMs = 0 }, "ready_timeout_ms"},
		{"bad policy", func(c *Config) { c.RT.Policy = "edf" }, "policy"},
		{"small stack", func(c *Config) { c.RT.StackSize = 1024 }, "stack_size"},
		{"bad cpu", func(c *Config) { c.RT.CPU = -3 }, "cpu"},
		{"empty port range", func(c *Config) { c.Port.Count = 0 }, "count"},
		{"port overflow", func(c *Config) { c.Port.Base = 0xFFFE }, "I/O space"},
		{"bad driver", func(c *Config) { c.Output.Driver = "pwm" }, "driver"},
		{"lpt without ports", func(c *Config) { c.Output.Driver = "lpt"; c.Port.Enabled = new(bool) }, "port.enabled"},
		{"move out of range", func(c *Config) { c.Motion.Turns = 1e9 }, "turns"},
		{"speed below one step per tick", func(c *Config) { c.Motion.Speed = 0.0001 }, "motion"},
		{"status interval", func(c *Config) { c.Status.Endpoint = "x:502"; c.Status.IntervalMs = 0 }, "interval_ms"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "level"},
	}

	for _, tc := range testCases {
		cfg := Default()
		tc.mod(cfg)

		err := Validate(cfg)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSchedulingRequestOtherDropsPriority(t *testing.T) {
	cfg := Default()
	cfg.RT.Policy = "other"

	req, err := cfg.SchedulingRequest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Priority != 0 || req.Policy != rt.PolicyOther {
		t.Errorf("expected SCHED_OTHER at priority 0, got %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}
