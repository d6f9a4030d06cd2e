package rt

import (
	"errors"
	"syscall"
	"testing"
)

func TestDefaultRequest(t *testing.T) {
	r := DefaultRequest()
	if r.Priority != 80 || r.Policy != PolicyFIFO || r.StackSize != 16384 || r.Inherit || r.CPU != -1 {
		t.Errorf("unexpected default request: %+v", r)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("expected default request to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		mod  func(r *SchedulingRequest)
		step string
	}{
		{"small stack", func(r *SchedulingRequest) { r.StackSize = 4096 }, "setstacksize"},
		{"bad policy", func(r *SchedulingRequest) { r.Policy = Policy(7) }, "setschedpolicy"},
		{"priority zero", func(r *SchedulingRequest) { r.Priority = 0 }, "setschedparam"},
		{"priority too high", func(r *SchedulingRequest) { r.Priority = 100 }, "setschedparam"},
		{"other with priority", func(r *SchedulingRequest) { r.Policy = PolicyOther }, "setschedparam"},
		{"bad cpu", func(r *SchedulingRequest) { r.CPU = -2 }, "setaffinity"},
	}

	for _, tc := range testCases {
		r := DefaultRequest()
		tc.mod(&r)

		err := r.Validate()
		var se *SetupError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected SetupError, got %v", tc.name, err)
			continue
		}
		if se.Step != tc.step {
			t.Errorf("%s: expected step %s, got %s", tc.name, tc.step, se.Step)
		}
		if se.Code() != int(syscall.EINVAL) || !errors.Is(err, syscall.EINVAL) {
			t.Errorf("%s: expected EINVAL, got %v", tc.name, se.Errno)
		}
	}
}

func TestValidateInheritSkipsPriority(t *testing.T) {
	r := DefaultRequest()
	r.Inherit = true
	r.Priority = 0
	if err := r.Validate(); err != nil {
		t.Errorf("expected inherited request to validate, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	testCases := []struct {
		in       string
		expected Policy
		ok       bool
	}{
		{"fifo", PolicyFIFO, true},
		{"SCHED_RR", PolicyRR, true},
		{" other ", PolicyOther, true},
		{"", PolicyOther, true},
		{"deadline", PolicyOther, false},
	}

	for _, tc := range testCases {
		p, err := ParsePolicy(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParsePolicy(%q): unexpected error state %v", tc.in, err)
			continue
		}
		if tc.ok && p != tc.expected {
			t.Errorf("ParsePolicy(%q): expected %s, got %s", tc.in, tc.expected, p)
		}
	}
}

func TestSetupErrorWrapsNonErrno(t *testing.T) {
	base := errors.New("boom")
	err := setupError("setaffinity", base)
	if !errors.Is(err, base) {
		t.Errorf("expected wrapped error, got %v", err)
	}

	err = setupError("setschedparam", syscall.EPERM)
	var se *SetupError
	if !errors.As(err, &se) || se.Code() != int(syscall.EPERM) {
		t.Errorf("expected EPERM SetupError, got %v", err)
	}
}

func TestGrowStack(t *testing.T) {
	growStack(MinStackSize)
	growStack(1)
}
