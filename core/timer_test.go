package core

import "testing"

func TestTickDisabledHoldsCounter(t *testing.T) {
	testCases := []TimerState{
		{Enabled: false, Counter: 7, Compare: 10},
		{Enabled: true, Counter: 7, Compare: 0},
		{Enabled: false, Counter: 0, Compare: 0},
	}

	for i, tc := range testCases {
		next, ev := Tick(tc)
		if ev != NoEvent {
			t.Errorf("Test case %d: expected no-event, got %v", i, ev)
		}
		if next.Counter != 0 {
			t.Errorf("Test case %d: expected counter 0, got %d", i, next.Counter)
		}
		if next.Enabled != tc.Enabled || next.Compare != tc.Compare {
			t.Errorf("Test case %d: registers changed: %+v -> %+v", i, tc, next)
		}
	}
}

func TestTickMatchesEveryKTicks(t *testing.T) {
	for _, k := range []uint32{1, 2, 3, 10, 23} {
		s := TimerState{Enabled: true, Compare: k}

		for tick := uint32(1); tick <= 10*k; tick++ {
			var ev Event
			s, ev = Tick(s)

			wantMatch := tick%k == 0
			if (ev == Match) != wantMatch {
				t.Fatalf("k=%d tick=%d: expected match=%v, got %v", k, tick, wantMatch, ev)
			}
			if ev == Match && s.Counter != 0 {
				t.Fatalf("k=%d tick=%d: counter not reset after match: %d", k, tick, s.Counter)
			}
			if ev == NoEvent && s.Counter != tick%k {
				t.Fatalf("k=%d tick=%d: expected counter %d, got %d", k, tick, tick%k, s.Counter)
			}
		}
	}
}

func TestTickCounterAboveCompareFiresImmediately(t *testing.T) {
	// Compare lowered below the running counter: next tick fires
	s := TimerState{Enabled: true, Counter: 50, Compare: 10}
	s, ev := Tick(s)
	if ev != Match {
		t.Errorf("expected match, got %v", ev)
	}
	if s.Counter != 0 {
		t.Errorf("expected counter 0, got %d", s.Counter)
	}
}

func TestVirtualTimerDisableInterval(t *testing.T) {
	vt := NewVirtualTimer()
	vt.SetCompare(3)
	vt.Enable()

	matches := 0
	for i := 0; i < 5; i++ {
		if vt.Tick() == Match {
			matches++
		}
	}
	if matches != 1 {
		t.Fatalf("expected 1 match before disable, got %d", matches)
	}
	if vt.Counter() != 2 {
		t.Fatalf("expected counter 2, got %d", vt.Counter())
	}

	vt.Disable()
	for i := 0; i < 100; i++ {
		if vt.Tick() == Match {
			t.Fatalf("match while disabled at tick %d", i)
		}
		if vt.Counter() != 0 {
			t.Fatalf("counter %d while disabled at tick %d", vt.Counter(), i)
		}
	}

	// Re-enabled timer starts a full period from zero
	vt.Enable()
	for i := 1; i <= 3; i++ {
		ev := vt.Tick()
		if (ev == Match) != (i == 3) {
			t.Fatalf("after re-enable tick %d: unexpected %v", i, ev)
		}
	}
}

func TestVirtualTimerReset(t *testing.T) {
	vt := NewVirtualTimer()
	vt.SetCompare(5)
	vt.Enable()
	vt.Tick()
	vt.Reset()

	if vt.State() != (TimerState{}) {
		t.Errorf("expected zero state after reset, got %+v", vt.State())
	}
}
