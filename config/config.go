// Package config holds the YAML configuration of a steprt run
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Motion    MotionConfig    `yaml:"motion"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	RT        RTConfig        `yaml:"rt"`
	Port      PortConfig      `yaml:"port"`
	Output    OutputConfig    `yaml:"output"`
	Status    StatusConfig    `yaml:"status"`
	Log       LogConfig       `yaml:"log"`
}

// ---- MOTION ----

type MotionConfig struct {
	Turns       float64 `yaml:"turns"`
	Accel       float64 `yaml:"accel"` // turn/s²
	Decel       float64 `yaml:"decel"` // turn/s²
	Speed       float64 `yaml:"speed"` // turn/s
	StepsPerRev uint32  `yaml:"steps_per_rev"`
}

// ---- SCHEDULER ----

type SchedulerConfig struct {
	PeriodNs         int64 `yaml:"period_ns"`
	OverrunThreshold int64 `yaml:"overrun_threshold_ns"` // 0 = one period
	ReadyTimeoutMs   int   `yaml:"ready_timeout_ms"`
}

// ---- REAL-TIME THREAD ----

type RTConfig struct {
	Priority   int    `yaml:"priority"`
	Policy     string `yaml:"policy"`
	StackSize  int    `yaml:"stack_size"`
	Inherit    bool   `yaml:"inherit"`
	CPU        int    `yaml:"cpu"` // -1 leaves affinity alone
	LockMemory bool   `yaml:"lock_memory"`
	DisableGC  bool   `yaml:"disable_gc"`
}

// ---- PORT RANGE ----

type PortConfig struct {
	Enabled *bool  `yaml:"enabled"` // unset follows the output driver
	Base    uint16 `yaml:"base"`
	Count   uint16 `yaml:"count"`
}

// ---- OUTPUT ----

type OutputConfig struct {
	Driver string `yaml:"driver"` // null, lpt, rpio, serial

	// lpt
	StepBit      uint8 `yaml:"step_bit"`
	DirBit       uint8 `yaml:"dir_bit"`
	Invert       bool  `yaml:"invert"`
	PulseWidthNs int64 `yaml:"pulse_width_ns"`

	// rpio
	StepPin   int `yaml:"step_pin"`
	DirPin    int `yaml:"dir_pin"`
	EnablePin int `yaml:"enable_pin"` // -1 when not wired

	// serial
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// ---- STATUS ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"` // host:port; empty disables publishing
	UnitID     uint8  `yaml:"unit_id"`
	Address    uint16 `yaml:"address"`
	IntervalMs int    `yaml:"interval_ms"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

// ---- LOG ----

type LogConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"` // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default is the configuration used when no file is given: 5 turns at
// 1 turn/s with 1 turn/s² ramps, 217us period, SCHED_FIFO 80, null output.
func Default() *Config {
	return &Config{
		Motion: MotionConfig{
			Turns:       5,
			Accel:       1,
			Decel:       1,
			Speed:       1,
			StepsPerRev: 200,
		},
		Scheduler: SchedulerConfig{
			PeriodNs:       217000,
			ReadyTimeoutMs: 1000,
		},
		RT: RTConfig{
			Priority:   80,
			Policy:     "fifo",
			StackSize:  16384,
			CPU:        -1,
			LockMemory: true,
			DisableGC:  true,
		},
		Port: PortConfig{
			Base:  0x378,
			Count: 4,
		},
		Output: OutputConfig{
			Driver:       "null",
			StepBit:      0,
			DirBit:       1,
			PulseWidthNs: 2000,
			StepPin:      17,
			DirPin:       27,
			EnablePin:    -1,
			Device:       "/dev/ttyACM0",
			Baud:         250000,
		},
		Status: StatusConfig{
			UnitID:     1,
			IntervalMs: 500,
			TimeoutMs:  1000,
			DeviceName: "steprt",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads a YAML file over Default. Keys absent from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default, rejecting unknown keys
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
