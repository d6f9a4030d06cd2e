// Package lifecycle runs one move end to end: it converts the motion
// request, acquires ports and locked memory, launches the real-time thread,
// waits for it and releases everything on every exit path.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.uber.org/multierr"

	"steprt/core"
	"steprt/hwio"
	"steprt/rt"
	"steprt/speedctl"
	"steprt/status"
)

// Exit codes besides 0 and thread setup errnos
const (
	ExitOK           = 0
	ExitMlockFailed  = -2
	ExitOutputFailed = 1
	ExitLaunchFailed = 1
)

// DefaultReadyWait bounds the wait for the real-time thread to start
const DefaultReadyWait = time.Second

var ErrReadyTimeout = errors.New("real-time thread did not start in time")

// StatusSink receives progress while the run is active
type StatusSink interface {
	Start(ctx context.Context, src status.Source)
	Stop(final status.Snapshot) error
}

// Deps are the platform capabilities a run uses. Unset ones fall back to
// the platform defaults; a nil Output only counts steps. The manager owns
// Output and closes it on every exit path, including ones where Init was
// never reached.
//
// Port permissions are per thread: Ports is enabled on the manager's
// locked thread for Output.Init and Close, and again on the real-time
// thread for Step.
type Deps struct {
	Ports    hwio.PortIO
	Memory   rt.MemoryLocker
	Launcher rt.Launcher
	Clock    core.Clock
	Output   core.StepOutput
	Status   StatusSink
	Logger   hclog.Logger

	// Signals installs the interrupt handler; defaults to NotifyInterrupt
	Signals func(cancel func()) (stop func())
}

// Options describe the move and how the thread runs
type Options struct {
	Target           speedctl.Target
	StepsPerRev      uint32
	Period           time.Duration
	OverrunThreshold time.Duration // 0 = one period
	Request          rt.SchedulingRequest
	PortRange        hwio.Range
	ReadyTimeout     time.Duration
	LockMemory       bool
	DisableGC        bool
}

// DefaultOptions is the reference run: 5 turns at 1 turn/s with 1 turn/s²
// ramps on a 217us tick
func DefaultOptions() Options {
	return Options{
		Target:       speedctl.Target{Turns: 5, Accel: 1, Decel: 1, Speed: 1},
		StepsPerRev:  speedctl.DefaultStepsPerRev,
		Period:       core.DefaultPeriod,
		Request:      rt.DefaultRequest(),
		PortRange:    hwio.DefaultRange(),
		ReadyTimeout: DefaultReadyWait,
		LockMemory:   true,
	}
}

// Outcome is the result of Run
type Outcome struct {
	State      State
	Move       speedctl.DeviceMove
	Steps      uint32
	Requested  uint32
	ExitCode   int
	Err        error // Why the run stopped early
	JoinErr    error // Fault inside the real-time thread
	CleanupErr error

	Ticks    uint64
	Overruns uint64
	MaxLate  time.Duration
	Recent   []core.Overrun
}

// Manager drives the states of a single run
type Manager struct {
	opts Options
	deps Deps
	log  hclog.Logger

	state     atomic.Uint32
	shutdown  *core.Shutdown
	stats     *core.TimingStats
	task      atomic.Pointer[core.CyclicTask]
	requested uint32

	// OnTransition is called after every state change
	OnTransition func(from, to State)
}

// New creates a manager. Missing platform deps are filled with the
// platform defaults.
func New(opts Options, deps Deps) *Manager {
	if deps.Ports == nil {
		deps.Ports = hwio.Noop{}
	}
	if deps.Memory == nil {
		deps.Memory = rt.NewMemoryLocker()
	}
	if deps.Launcher == nil {
		deps.Launcher = rt.NewLauncher()
	}
	if deps.Clock == nil {
		deps.Clock = core.NewMonotonicClock()
	}
	if deps.Logger == nil {
		deps.Logger = hclog.NewNullLogger()
	}
	if deps.Signals == nil {
		deps.Signals = NotifyInterrupt
	}
	if opts.Period <= 0 {
		opts.Period = core.DefaultPeriod
	}
	if opts.OverrunThreshold <= 0 {
		opts.OverrunThreshold = opts.Period
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyWait
	}

	return &Manager{
		opts:     opts,
		deps:     deps,
		log:      deps.Logger,
		shutdown: core.NewShutdown(),
		stats:    core.NewTimingStats(opts.OverrunThreshold.Nanoseconds()),
	}
}

// State returns the current stage
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Cancel requests the real-time loop to stop
func (m *Manager) Cancel() {
	m.shutdown.Cancel()
}

// Shutdown returns the cancellation token shared with the loop
func (m *Manager) Shutdown() *core.Shutdown {
	return m.shutdown
}

// Steps returns the steps emitted so far
func (m *Manager) Steps() uint32 {
	if t := m.task.Load(); t != nil {
		return t.Steps()
	}
	return 0
}

func (m *Manager) transition(to State) {
	from := State(m.state.Swap(uint32(to)))
	m.log.Debug("state change", "from", from, "to", to)
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
}

// snapshot samples progress for the status publisher
func (m *Manager) snapshot() status.Snapshot {
	return status.Snapshot{
		State:     uint16(m.State()),
		Steps:     m.Steps(),
		Requested: m.requested,
		Overruns:  m.stats.Overruns(),
		MaxLate:   time.Duration(m.stats.MaxLate()),
	}
}

// Run performs the move. It returns once the thread has been joined and
// everything acquired has been released. The calling goroutine is locked
// to its OS thread for the whole run so per-thread grants made here are
// still held at cleanup.
func (m *Manager) Run() Outcome {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var out Outcome
	res := &resources{}

	m.run(&out, res)

	m.transition(Cleanup)
	out.CleanupErr = m.cleanup(res, &out)

	out.Steps = m.Steps()
	out.Requested = m.requested
	out.Ticks = m.stats.Ticks()
	out.Overruns = m.stats.Overruns()
	out.MaxLate = time.Duration(m.stats.MaxLate())
	out.Recent = m.stats.RecentOverruns()

	m.transition(Terminated)
	out.State = Terminated
	return out
}

// resources records what must be released
type resources struct {
	memoryLocked bool
	stopSignals  func()
	statusOn     bool
	gcPercent    int
	gcDisabled   bool

	// thread is set once launched; threadAlive when it outlived the
	// readiness wait and still owns the output
	thread      *rt.Thread
	threadAlive bool
	threadPorts error
}

func (m *Manager) run(out *Outcome, res *resources) {
	// ------------------------------------------------------------
	// CONFIGURING
	// ------------------------------------------------------------
	m.transition(Configuring)

	timer := core.NewVirtualTimer()
	ctrl, err := speedctl.New(timer, m.deps.Output, speedctl.Profile{
		TimerFreq:   float64(time.Second) / float64(m.opts.Period),
		StepsPerRev: m.opts.StepsPerRev,
	})
	if err != nil {
		out.Err = fmt.Errorf("speed controller: %w", err)
		return
	}

	// Stop the timer before programming the move
	ctrl.Init()

	move, err := ctrl.Start(m.opts.Target, m.opts.StepsPerRev)
	if err != nil {
		out.Err = fmt.Errorf("move: %w", err)
		return
	}
	out.Move = move
	m.requested = move.Requested()
	m.log.Info("move programmed",
		"steps", move.Steps, "accel", move.Accel, "decel", move.Decel, "speed", move.Speed)

	sched := core.NewScheduler(m.deps.Clock, m.opts.Period)
	sched.SetStats(m.stats)

	task, err := core.NewCyclicTask(core.CyclicTaskConfig{
		Scheduler: sched,
		Timer:     timer,
		Motion:    ctrl,
		Shutdown:  m.shutdown,
		Target:    m.requested,
	})
	if err != nil {
		out.Err = err
		return
	}
	m.task.Store(task)

	// ------------------------------------------------------------
	// LOCKED
	// ------------------------------------------------------------
	m.transition(Locked)

	if err := m.deps.Ports.Enable(m.opts.PortRange); err != nil {
		m.log.Error("could not set permissions on ports", "range", m.opts.PortRange, "error", err)
		out.Err = fmt.Errorf("enable ports %s: %w", m.opts.PortRange, err)
		out.ExitCode = ExitOK
		return
	}

	if m.deps.Output != nil {
		if err := m.deps.Output.Init(); err != nil {
			m.log.Error("output init failed", "output", m.deps.Output.Name(), "error", err)
			out.Err = fmt.Errorf("init output %s: %w", m.deps.Output.Name(), err)
			out.ExitCode = ExitOutputFailed
			return
		}
	}

	res.stopSignals = m.deps.Signals(m.shutdown.Cancel)

	if m.deps.Status != nil {
		m.deps.Status.Start(context.Background(), m.snapshot)
		res.statusOn = true
	}

	if m.opts.LockMemory {
		if err := m.deps.Memory.Lock(); err != nil {
			m.log.Error("mlockall failed", "error", err)
			out.Err = fmt.Errorf("lock memory: %w", err)
			out.ExitCode = ExitMlockFailed
			return
		}
		res.memoryLocked = true
	}

	// ------------------------------------------------------------
	// THREAD LAUNCHED
	// ------------------------------------------------------------
	if m.opts.DisableGC {
		res.gcPercent = debug.SetGCPercent(-1)
		res.gcDisabled = true
	}

	th, err := m.deps.Launcher.Launch(m.opts.Request, rt.Task{
		Setup: func() error {
			if err := m.deps.Ports.Enable(m.opts.PortRange); err != nil {
				m.log.Error("could not set permissions on ports for real-time thread", "range", m.opts.PortRange, "error", err)
				return fmt.Errorf("enable ports %s on real-time thread: %w", m.opts.PortRange, err)
			}
			return nil
		},
		Run: task.Run,
		Teardown: func() {
			res.threadPorts = m.deps.Ports.Disable(m.opts.PortRange)
		},
	})
	if err != nil {
		m.log.Error("create real-time thread failed", "request", m.opts.Request, "error", err)
		out.Err = fmt.Errorf("launch: %w", err)
		out.ExitCode = exitCode(err)
		return
	}
	m.transition(ThreadLaunched)
	res.thread = th

	// ------------------------------------------------------------
	// RUNNING
	// ------------------------------------------------------------
	if !task.Started().Wait(m.opts.ReadyTimeout) {
		m.log.Error("real-time thread did not start", "timeout", m.opts.ReadyTimeout)
		m.shutdown.Cancel()
		out.Err = ErrReadyTimeout
		out.ExitCode = int(syscall.ETIMEDOUT)

		// The loop checks the token before its first step, so a late
		// start exits without pulsing
		select {
		case <-th.Done():
		case <-time.After(m.opts.ReadyTimeout):
			m.log.Error("real-time thread still not joined, leaving output and memory to it",
				"timeout", m.opts.ReadyTimeout)
			res.threadAlive = true
		}
		return
	}
	m.transition(Running)

	// ------------------------------------------------------------
	// JOINED
	// ------------------------------------------------------------
	if err := th.Join(); err != nil {
		m.log.Error("join real-time thread failed", "error", err)
		out.JoinErr = err
	}
	m.transition(JoinedOrFailed)

	if !m.shutdown.Running() {
		m.log.Info("interrupted", "steps", task.Steps(), "requested", m.requested)
	}
	m.log.Info("run complete", "steps", task.Steps(), "matches", task.Matches(),
		"ticks", m.stats.Ticks(), "overruns", m.stats.Overruns(),
		"max_late", time.Duration(m.stats.MaxLate()))
	for _, o := range m.stats.RecentOverruns() {
		m.log.Debug("overrun", "tick", o.Tick, "late", time.Duration(o.Late))
	}
}

// cleanup releases everything in reverse order. The manager thread's port
// grant is always released exactly once.
func (m *Manager) cleanup(res *resources, out *Outcome) error {
	var err error

	if res.gcDisabled {
		debug.SetGCPercent(res.gcPercent)
	}
	if res.stopSignals != nil {
		res.stopSignals()
	}
	if res.threadAlive {
		// The thread may still step the output; it is closed once the
		// thread returns. Locked memory stays until process exit.
		if m.deps.Output != nil {
			go m.closeAfter(res.thread)
		}
	} else {
		if res.memoryLocked {
			err = multierr.Append(err, wrapErr("unlock memory", m.deps.Memory.Unlock()))
		}
		if m.deps.Output != nil {
			err = multierr.Append(err, wrapErr("close output", m.deps.Output.Close()))
		}
		if res.thread != nil {
			err = multierr.Append(err, wrapErr("disable ports on real-time thread", res.threadPorts))
		}
	}
	err = multierr.Append(err, wrapErr("disable ports", m.deps.Ports.Disable(m.opts.PortRange)))

	if res.statusOn {
		final := m.snapshot()
		final.State = uint16(Terminated)
		final.ExitCode = int16(out.ExitCode)
		err = multierr.Append(err, wrapErr("stop status", m.deps.Status.Stop(final)))
	}

	if err != nil {
		m.log.Warn("cleanup incomplete", "error", err)
	}
	return err
}

// closeAfter closes the output once th has returned. It takes its own port
// grant since the manager thread's is gone by then.
func (m *Manager) closeAfter(th *rt.Thread) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	<-th.Done()
	if err := m.deps.Ports.Enable(m.opts.PortRange); err != nil {
		m.log.Error("could not set permissions on ports to close output", "error", err)
		return
	}
	if err := m.deps.Output.Close(); err != nil {
		m.log.Warn("close output after late thread exit", "error", err)
	}
	if err := m.deps.Ports.Disable(m.opts.PortRange); err != nil {
		m.log.Warn("disable ports after late thread exit", "error", err)
	}
}

func wrapErr(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

// exitCode maps a thread setup failure to the OS error number
func exitCode(err error) int {
	var se *rt.SetupError
	if errors.As(err, &se) {
		return se.Code()
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return ExitLaunchFailed
}
