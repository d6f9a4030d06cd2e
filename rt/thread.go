package rt

import (
	"fmt"
	"runtime"
)

// Launcher starts a task on a dedicated thread configured by a request
type Launcher interface {
	Launch(req SchedulingRequest, task Task) (*Thread, error)
}

// Task is the work run on a launched thread. Setup and Teardown are
// optional and run on the same OS thread as Run, for per-thread state such
// as I/O port permissions. Teardown runs only if Setup succeeded, even when
// Run panics.
type Task struct {
	Setup    func() error
	Run      func()
	Teardown func()
}

// MemoryLocker pins the process's memory resident
type MemoryLocker interface {
	Lock() error
	Unlock() error
}

// Thread is a handle to a launched task
type Thread struct {
	done chan struct{}
	err  error
}

// Join waits for the task to return. A panic in the task is reported here.
func (t *Thread) Join() error {
	<-t.done
	return t.err
}

// Done is closed when the task has returned
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// ThreadLauncher runs each task on its own locked OS thread. configure and
// then the task's Setup are called on that thread before Run; if either
// fails, Run never starts.
type ThreadLauncher struct {
	configure func(req SchedulingRequest) error
}

// NewLauncher returns the platform launcher
func NewLauncher() *ThreadLauncher {
	return &ThreadLauncher{configure: applyRequest}
}

// NewLauncherWith returns a launcher that runs configure on each new
// thread in place of the OS scheduling calls
func NewLauncherWith(configure func(req SchedulingRequest) error) *ThreadLauncher {
	return &ThreadLauncher{configure: configure}
}

// Launch validates req, starts task on a new OS thread configured by req
// and returns once configuration succeeded or failed.
func (l *ThreadLauncher) Launch(req SchedulingRequest, task Task) (*Thread, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	th := &Thread{done: make(chan struct{})}
	configured := make(chan error, 1)

	go func() {
		defer close(th.done)

		// Never unlocked: the thread carries the elevated policy and is
		// destroyed when this goroutine exits.
		runtime.LockOSThread()

		if err := l.configure(req); err != nil {
			configured <- err
			return
		}
		growStack(req.StackSize)

		if task.Setup != nil {
			if err := task.Setup(); err != nil {
				configured <- err
				return
			}
		}
		configured <- nil

		defer func() {
			if r := recover(); r != nil {
				th.err = fmt.Errorf("real-time task panicked: %v", r)
			}
		}()
		if task.Teardown != nil {
			defer task.Teardown()
		}
		if task.Run != nil {
			task.Run()
		}
	}()

	if err := <-configured; err != nil {
		<-th.done
		return nil, err
	}
	return th, nil
}
