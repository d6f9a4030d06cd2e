package core

// Virtual timer/counter emulation.
// Models a compare-match timer (CTC mode) the way motion code written for an
// MCU expects it: a clock-select enable bit, a free-running counter and a
// compare register. One Match equals one compare interrupt.

// Event is the outcome of a single timer tick
type Event uint8

const (
	NoEvent Event = 0 // Counter advanced (or held), no interrupt
	Match   Event = 1 // Counter reached the compare value
)

func (e Event) String() string {
	if e == Match {
		return "match"
	}
	return "no-event"
}

// TimerState is the register set of the emulated timer
type TimerState struct {
	Enabled bool   // Clock-select bit: counter runs only while set
	Counter uint32 // Free-running counter
	Compare uint32 // Compare register (0 = never matches)
}

// Tick advances the timer by one scheduler tick.
// A disabled timer or a zero compare value holds the counter at 0.
func Tick(s TimerState) (TimerState, Event) {
	if !s.Enabled || s.Compare == 0 {
		s.Counter = 0
		return s, NoEvent
	}

	s.Counter++
	if s.Counter >= s.Compare {
		s.Counter = 0
		return s, Match
	}
	return s, NoEvent
}

// VirtualTimer exposes TimerState as a register block.
// The motion controller programs it from inside OnCompare and the cyclic task
// ticks it, both on the real-time thread. Programming before the thread is
// launched is safe because the launch orders it.
type VirtualTimer struct {
	state TimerState
}

// NewVirtualTimer returns a stopped timer
func NewVirtualTimer() *VirtualTimer {
	return &VirtualTimer{}
}

// Enable sets the clock-select bit
func (t *VirtualTimer) Enable() {
	t.state.Enabled = true
}

// Disable clears the clock-select bit; the counter is cleared on the next tick
func (t *VirtualTimer) Disable() {
	t.state.Enabled = false
}

// Enabled reports the clock-select bit
func (t *VirtualTimer) Enabled() bool {
	return t.state.Enabled
}

// SetCompare writes the compare register
func (t *VirtualTimer) SetCompare(v uint32) {
	t.state.Compare = v
}

// Compare reads the compare register
func (t *VirtualTimer) Compare() uint32 {
	return t.state.Compare
}

// Counter reads the counter
func (t *VirtualTimer) Counter() uint32 {
	return t.state.Counter
}

// State returns a copy of the registers
func (t *VirtualTimer) State() TimerState {
	return t.state
}

// Reset stops the timer and clears all registers
func (t *VirtualTimer) Reset() {
	t.state = TimerState{}
}

// Tick advances the timer and reports whether the compare interrupt fired
func (t *VirtualTimer) Tick() Event {
	var ev Event
	t.state, ev = Tick(t.state)
	return ev
}
