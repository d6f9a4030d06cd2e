//go:build linux

package rt

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestPolicyValue(t *testing.T) {
	testCases := map[Policy]uint32{
		PolicyOther: 0,
		PolicyFIFO:  1,
		PolicyRR:    2,
	}
	for p, expected := range testCases {
		if p.value() != expected {
			t.Errorf("%s: expected %d, got %d", p, expected, p.value())
		}
	}
	if PolicyOther.value() != unix.SCHED_NORMAL {
		t.Errorf("expected SCHED_NORMAL, got %d", PolicyOther.value())
	}
}

func TestSetupRunsOnTaskThread(t *testing.T) {
	l := NewLauncherWith(func(SchedulingRequest) error { return nil })

	var setupTid, runTid, teardownTid int
	th, err := l.Launch(DefaultRequest(), Task{
		Setup:    func() error { setupTid = unix.Gettid(); return nil },
		Run:      func() { runTid = unix.Gettid() },
		Teardown: func() { teardownTid = unix.Gettid() },
	})
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
	th.Join()

	if setupTid == 0 || setupTid != runTid || runTid != teardownTid {
		t.Errorf("expected one thread, got setup=%d run=%d teardown=%d", setupTid, runTid, teardownTid)
	}
}
