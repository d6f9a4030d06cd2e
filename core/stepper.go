package core

// Cyclic real-time task: one scheduler tick drives the virtual timer, and each
// compare match runs the motion controller's interrupt handler.

import (
	"errors"
	"sync/atomic"
)

var ErrNoMotionController = errors.New("cyclic task requires a motion controller")

// CyclicTaskConfig wires the collaborators of a CyclicTask
type CyclicTaskConfig struct {
	Scheduler *Scheduler
	Timer     *VirtualTimer
	Motion    MotionController
	Shutdown  *Shutdown
	Started   *Latch
	Target    uint32 // Stop once this many steps have been emitted
}

// CyclicTask is the body of the real-time thread
type CyclicTask struct {
	sched    *Scheduler
	timer    *VirtualTimer
	motion   MotionController
	shutdown *Shutdown
	started  *Latch
	target   uint32

	steps   atomic.Uint32 // Written only by Run
	matches atomic.Uint64
}

// NewCyclicTask validates cfg and fills in missing optional parts
func NewCyclicTask(cfg CyclicTaskConfig) (*CyclicTask, error) {
	if cfg.Motion == nil {
		return nil, ErrNoMotionController
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewScheduler(NewMonotonicClock(), DefaultPeriod)
	}
	if cfg.Timer == nil {
		cfg.Timer = NewVirtualTimer()
	}
	if cfg.Shutdown == nil {
		cfg.Shutdown = NewShutdown()
	}
	if cfg.Started == nil {
		cfg.Started = NewLatch()
	}

	return &CyclicTask{
		sched:    cfg.Scheduler,
		timer:    cfg.Timer,
		motion:   cfg.Motion,
		shutdown: cfg.Shutdown,
		started:  cfg.Started,
		target:   cfg.Target,
	}, nil
}

// Run executes the periodic loop until the target step count is reached or
// shutdown is requested. Nothing in the loop allocates or logs.
func (t *CyclicTask) Run() {
	t.sched.Init()
	t.started.Signal()

	for t.shutdown.Running() {
		if t.timer.Tick() == Match {
			t.matches.Add(1)
			switch t.motion.OnCompare() {
			case StepForward, StepBackward:
				t.steps.Add(1)
			}
		}

		if t.steps.Load() >= t.target {
			break
		}

		t.sched.WaitNext()
	}
}

// Steps returns the number of steps emitted so far
func (t *CyclicTask) Steps() uint32 {
	return t.steps.Load()
}

// Matches returns the number of compare interrupts fired so far
func (t *CyclicTask) Matches() uint64 {
	return t.matches.Load()
}

// Target returns the requested step count
func (t *CyclicTask) Target() uint32 {
	return t.target
}

// Started returns the readiness latch signalled when the loop begins
func (t *CyclicTask) Started() *Latch {
	return t.started
}

// Shutdown returns the task's cancellation token
func (t *CyclicTask) Shutdown() *Shutdown {
	return t.shutdown
}
