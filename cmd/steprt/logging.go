package main

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"

	"steprt/config"
)

// newLogger builds the root logger tagged with the run id. Logs go to
// stderr unless a file is configured, in which case they are rotated.
func newLogger(cfg config.LogConfig, runID string) (hclog.Logger, func()) {
	var w io.Writer = os.Stderr
	closeFn := func() {}

	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = lj
		closeFn = func() { lj.Close() }
	}

	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "steprt",
		Output:     w,
		Level:      level,
		JSONFormat: cfg.JSON,
	})
	return logger.With("run", runID), closeFn
}
