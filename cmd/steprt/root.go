package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"steprt/config"
	"steprt/hwio"
	"steprt/lifecycle"
	"steprt/pulse"
	"steprt/status"
)

// runFunc performs the move; replaced in tests
type runFunc func(cfg *config.Config, stdout io.Writer) int

// execute parses args and runs. Rejected input prints a message and
// returns 0 without moving the motor.
func execute(args []string, stdout, stderr io.Writer) int {
	return executeWith(args, stdout, stderr, run)
}

func executeWith(args []string, stdout, stderr io.Writer, fn runFunc) int {
	code := 0
	cmd, err := newRootCmd(viper.New(), func(cfg *config.Config) {
		code = fn(cfg, stdout)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, cmd.UsageString())
		return 0
	}
	return code
}

// flag name -> config key
var bindings = []struct {
	flag string
	key  string
}{
	{"turns", "motion.turns"},
	{"accel", "motion.accel"},
	{"decel", "motion.decel"},
	{"speed", "motion.speed"},
	{"steps-per-rev", "motion.steps_per_rev"},
	{"period", "scheduler.period_ns"},
	{"policy", "rt.policy"},
	{"priority", "rt.priority"},
	{"cpu", "rt.cpu"},
	{"output", "output.driver"},
	{"device", "output.device"},
	{"port-base", "port.base"},
	{"status", "status.endpoint"},
	{"log-level", "log.level"},
	{"log-file", "log.file"},
	{"log-json", "log.json"},
}

func newRootCmd(v *viper.Viper, onRun func(cfg *config.Config)) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "steprt",
		Short: "Real-time stepper motor pulse generator",
		Long: `steprt moves a stepper motor along a trapezoidal speed profile.
A periodic real-time thread emulates a compare-match timer whose
interrupt handler emits one step pulse per match.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			onRun(cfg)
			return nil
		},
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	f := cmd.Flags()
	f.StringP("config", "c", "", "YAML configuration file")
	f.Float64P("turns", "t", 5, "Number of turns (negative moves counter-clockwise)")
	f.Float64P("accel", "a", 1, "Acceleration in turn/sec*sec")
	f.Float64P("decel", "d", 1, "Deceleration in turn/sec*sec")
	f.Float64P("speed", "s", 1, "Speed in turn/sec")
	f.Uint32("steps-per-rev", 200, "Motor full steps per revolution")
	f.Int64("period", 217000, "Scheduler period in nanoseconds")
	f.String("policy", "fifo", "Real-time thread policy (fifo, rr, other)")
	f.Int("priority", 80, "Real-time thread priority")
	f.Int("cpu", -1, "Pin the real-time thread to this CPU (-1 = any)")
	f.String("output", "null", "Pulse output driver (null, lpt, rpio, serial)")
	f.String("device", "/dev/ttyACM0", "Serial device for the serial output")
	f.Uint16("port-base", 0x378, "I/O port base for the lpt output")
	f.String("status", "", "Modbus TCP endpoint for status publishing (host:port)")
	f.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	f.String("log-file", "", "Log to this file with rotation instead of stderr")
	f.Bool("log-json", false, "Log in JSON format")

	if err := bindFlags(v, f); err != nil {
		return nil, err
	}
	return cmd, nil
}

// bindFlags ties each flag to its config key and enables STEPRT_* env
// overrides, e.g. STEPRT_MOTION_TURNS
func bindFlags(v *viper.Viper, f *pflag.FlagSet) error {
	v.SetEnvPrefix("STEPRT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlag("config", f.Lookup("config")); err != nil {
		return err
	}
	for _, b := range bindings {
		fl := f.Lookup(b.flag)
		if fl == nil {
			return fmt.Errorf("flag --%s not defined", b.flag)
		}
		if err := v.BindPFlag(b.key, fl); err != nil {
			return fmt.Errorf("bind --%s: %w", b.flag, err)
		}
	}
	return nil
}

// loadConfig reads the optional file and layers flags and STEPRT_* env
// vars on top of it
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyOverrides(v, cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func applyOverrides(v *viper.Viper, cfg *config.Config) error {
	set := func(key string) bool { return v.IsSet(key) }

	if set("motion.turns") {
		cfg.Motion.Turns = v.GetFloat64("motion.turns")
	}
	if set("motion.accel") {
		cfg.Motion.Accel = v.GetFloat64("motion.accel")
	}
	if set("motion.decel") {
		cfg.Motion.Decel = v.GetFloat64("motion.decel")
	}
	if set("motion.speed") {
		cfg.Motion.Speed = v.GetFloat64("motion.speed")
	}
	if set("motion.steps_per_rev") {
		cfg.Motion.StepsPerRev = v.GetUint32("motion.steps_per_rev")
	}
	if set("scheduler.period_ns") {
		cfg.Scheduler.PeriodNs = v.GetInt64("scheduler.period_ns")
	}
	if set("rt.policy") {
		cfg.RT.Policy = v.GetString("rt.policy")
	}
	if set("rt.priority") {
		cfg.RT.Priority = v.GetInt("rt.priority")
	}
	if set("rt.cpu") {
		cfg.RT.CPU = v.GetInt("rt.cpu")
	}
	if set("output.driver") {
		cfg.Output.Driver = v.GetString("output.driver")
	}
	if set("output.device") {
		cfg.Output.Device = v.GetString("output.device")
	}
	if set("port.base") {
		base := v.GetUint32("port.base")
		if base > 0xFFFF {
			return fmt.Errorf("port base 0x%x out of range", base)
		}
		cfg.Port.Base = uint16(base)
	}
	if set("status.endpoint") {
		cfg.Status.Endpoint = v.GetString("status.endpoint")
	}
	if set("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if set("log.file") {
		cfg.Log.File = v.GetString("log.file")
	}
	if set("log.json") {
		cfg.Log.JSON = v.GetBool("log.json")
	}
	return nil
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, " Total number of turn : %4.4f\n", cfg.Motion.Turns)
	fmt.Fprintf(w, "         Acceleration : %4.4f turn/sec*sec\n", cfg.Motion.Accel)
	fmt.Fprintf(w, "         Deceleration : %4.4f turn/sec*sec\n", cfg.Motion.Decel)
	fmt.Fprintf(w, "                Speed : %4.4f turn/sec\n", cfg.Motion.Speed)
	fmt.Fprintln(w, "--------------------------------------------------")
}

// run performs one move with the real platform adapters
func run(cfg *config.Config, stdout io.Writer) int {
	runID := uuid.New().String()
	logger, closeLog := newLogger(cfg.Log, runID)
	defer closeLog()

	printSummary(stdout, cfg)

	req, err := cfg.SchedulingRequest()
	if err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		return 0
	}

	// From here on the manager owns output and closes it on every path
	output, err := pulse.Open(cfg.Pulse())
	if err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", err)
		logger.Error("open output failed", "error", err)
		return lifecycle.ExitOutputFailed
	}

	ports := hwio.New(cfg.PortEnabled())
	if cfg.PortEnabled() {
		fmt.Fprintf(stdout, "Parallel Port Interface (Base: 0x%x)\n", cfg.Port.Base)
	}

	deps := lifecycle.Deps{
		Ports:  ports,
		Output: output,
		Logger: logger.Named("lifecycle"),
	}
	if pub := newStatusPublisher(cfg.Status, logger.Named("status")); pub != nil {
		deps.Status = pub
	}

	m := lifecycle.New(lifecycle.Options{
		Target:           cfg.Target(),
		StepsPerRev:      cfg.Motion.StepsPerRev,
		Period:           cfg.Period(),
		OverrunThreshold: time.Duration(cfg.Scheduler.OverrunThreshold),
		Request:          req,
		PortRange:        cfg.PortRange(),
		ReadyTimeout:     cfg.ReadyTimeout(),
		LockMemory:       cfg.RT.LockMemory,
		DisableGC:        cfg.RT.DisableGC,
	}, deps)

	logger.Info("starting", "output", output.Name(), "ports", ports.Name(), "request", req)
	out := m.Run()

	if out.Err != nil {
		fmt.Fprintf(stdout, "ERROR: %v\n", out.Err)
	}
	if out.JoinErr != nil {
		fmt.Fprintf(stdout, "join real-time thread failed: %v\n", out.JoinErr)
	}
	if out.Err == nil {
		fmt.Fprintf(stdout, "total_step_count = %d\n", out.Steps)
	}
	if out.Overruns > 0 {
		fmt.Fprintf(stdout, "overruns = %d (max late %s)\n", out.Overruns, out.MaxLate)
	}
	return out.ExitCode
}

// newStatusPublisher connects the status endpoint when configured. A
// status endpoint that cannot be reached does not stop the run.
func newStatusPublisher(cfg config.StatusConfig, logger hclog.Logger) *status.Publisher {
	if cfg.Endpoint == "" {
		return nil
	}

	client, err := status.Dial(cfg.Endpoint, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	if err != nil {
		logger.Warn("status endpoint unavailable, publishing disabled", "endpoint", cfg.Endpoint, "error", err)
		return nil
	}

	return status.NewPublisher(client, status.PublisherConfig{
		UnitID:     cfg.UnitID,
		Address:    cfg.Address,
		Interval:   time.Duration(cfg.IntervalMs) * time.Millisecond,
		DeviceName: cfg.DeviceName,
	}, logger)
}
