package pulse

import (
	"sync/atomic"

	"steprt/core"
)

// Counter is the null output: it only counts pulses per direction
type Counter struct {
	cw  atomic.Uint64
	ccw atomic.Uint64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Init() error {
	c.cw.Store(0)
	c.ccw.Store(0)
	return nil
}

func (c *Counter) Step(dir core.Direction) {
	if dir == core.CCW {
		c.ccw.Add(1)
		return
	}
	c.cw.Add(1)
}

func (c *Counter) Close() error { return nil }
func (c *Counter) Name() string { return DriverNull }

// Counts returns the pulses seen clockwise and counter-clockwise
func (c *Counter) Counts() (cw, ccw uint64) {
	return c.cw.Load(), c.ccw.Load()
}
