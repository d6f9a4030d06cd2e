package pulse

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"steprt/core"
	"steprt/protocol"
)

func TestOpen(t *testing.T) {
	testCases := []struct {
		cfg      func(c *Config)
		expected string
		ok       bool
	}{
		{func(c *Config) {}, DriverNull, true},
		{func(c *Config) { c.Driver = "LPT" }, DriverLPT, true},
		{func(c *Config) { c.Driver = "lpt"; c.DirBit = c.StepBit }, "", false},
		{func(c *Config) { c.Driver = "lpt"; c.StepBit = 8 }, "", false},
		{func(c *Config) { c.Driver = "rpio" }, DriverRPIO, true},
		{func(c *Config) { c.Driver = "rpio"; c.DirPin = c.StepPin }, "", false},
		{func(c *Config) { c.Driver = "serial"; c.Device = "" }, "", false},
		{func(c *Config) { c.Driver = "pwm" }, "", false},
	}

	for i, tc := range testCases {
		cfg := DefaultConfig()
		tc.cfg(&cfg)

		out, err := Open(cfg)
		if (err == nil) != tc.ok {
			t.Errorf("Test case %d: unexpected error state %v", i, err)
			continue
		}
		if tc.ok && out.Name() != tc.expected {
			t.Errorf("Test case %d: expected %s, got %s", i, tc.expected, out.Name())
		}
	}
}

func TestNeedsPorts(t *testing.T) {
	if !NeedsPorts("lpt") || NeedsPorts("rpio") || NeedsPorts("null") {
		t.Error("only lpt should need port access")
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	c.Step(core.CW)
	c.Step(core.CW)
	c.Step(core.CCW)

	cw, ccw := c.Counts()
	if cw != 2 || ccw != 1 {
		t.Errorf("expected 2/1, got %d/%d", cw, ccw)
	}

	c.Init()
	if cw, ccw = c.Counts(); cw != 0 || ccw != 0 {
		t.Errorf("expected counts reset by Init, got %d/%d", cw, ccw)
	}
}

type fakePort struct {
	writes []byte
	log    [][2]uint16
	fail   bool
	closed bool
}

func (f *fakePort) WritePort(port uint16, v byte) error {
	if f.fail {
		return errors.New("write failed")
	}
	f.writes = append(f.writes, v)
	f.log = append(f.log, [2]uint16{port, uint16(v)})
	return nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func newTestLPT(invert bool) (*LPT, *fakePort) {
	fp := &fakePort{}
	l := NewLPT(0x378, 0, 1, invert, 0)
	l.open = func() (portWriter, error) { return fp, nil }
	return l, fp
}

func TestLPTStep(t *testing.T) {
	l, fp := newTestLPT(false)
	if err := l.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	l.Step(core.CW)
	l.Step(core.CCW)

	// init, step hi/lo, dir, step hi/lo
	expected := []byte{0x00, 0x01, 0x00, 0x02, 0x03, 0x02}
	if !bytes.Equal(fp.writes, expected) {
		t.Errorf("expected writes %v, got %v", expected, fp.writes)
	}
	for _, w := range fp.log {
		if w[0] != 0x378 {
			t.Errorf("expected writes to 0x378, got 0x%x", w[0])
		}
	}

	if err := l.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !fp.closed || fp.writes[len(fp.writes)-1] != 0 {
		t.Error("expected lines reset and port closed")
	}
}

func TestLPTInverted(t *testing.T) {
	l, fp := newTestLPT(true)
	l.Init()
	l.Step(core.CW)

	expected := []byte{0x03, 0x02, 0x03}
	if !bytes.Equal(fp.writes, expected) {
		t.Errorf("expected writes %v, got %v", expected, fp.writes)
	}
}

func TestLPTCountsErrors(t *testing.T) {
	l, fp := newTestLPT(false)
	l.Init()
	fp.fail = true
	l.Step(core.CW)

	if l.Errors() != 2 {
		t.Errorf("expected 2 failed writes, got %d", l.Errors())
	}
}

func TestLPTOpenFailure(t *testing.T) {
	l := NewLPT(0x378, 0, 1, false, 0)
	l.open = func() (portWriter, error) { return nil, ErrUnsupported }
	if err := l.Init(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	// Step before a successful Init is a no-op
	l.Step(core.CW)
}

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestSerialFrames(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial(port)

	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	s.Step(core.CW)
	s.Step(core.CCW)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expected := []struct {
		cmd  uint32
		args []int32
	}{
		{protocol.CmdReset, nil},
		{protocol.CmdStep, []int32{0}},
		{protocol.CmdStep, []int32{1}},
		{protocol.CmdStop, nil},
	}

	data := port.Bytes()
	for i, e := range expected {
		f, n, err := protocol.Decode(data)
		if err != nil {
			t.Fatalf("frame %d: decode failed: %v", i, err)
		}
		data = data[n:]

		if f.Cmd != e.cmd || len(f.Args) != len(e.args) {
			t.Errorf("frame %d: expected cmd %d args %v, got %s", i, e.cmd, e.args, f)
			continue
		}
		for j := range e.args {
			if f.Args[j] != e.args[j] {
				t.Errorf("frame %d: expected args %v, got %v", i, e.args, f.Args)
			}
		}
		if f.Seq != uint8(i) {
			t.Errorf("frame %d: expected seq %d, got %d", i, i, f.Seq)
		}
	}

	if s.Frames() != 4 || s.Errors() != 0 {
		t.Errorf("expected 4 frames and no errors, got %d/%d", s.Frames(), s.Errors())
	}
	if !port.closed {
		t.Error("expected port closed")
	}
}

type brokenPort struct{}

func (brokenPort) Read([]byte) (int, error)  { return 0, errors.New("broken") }
func (brokenPort) Write([]byte) (int, error) { return 0, errors.New("broken") }
func (brokenPort) Close() error              { return nil }

func TestSerialCountsErrors(t *testing.T) {
	s := NewSerial(brokenPort{})
	if err := s.Init(); err == nil {
		t.Error("expected Init error")
	}
	s.Step(core.CW)
	if s.Errors() != 1 {
		t.Errorf("expected 1 error, got %d", s.Errors())
	}
}

func TestSerialCloseWithoutInit(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial(port)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if port.Len() != 0 || s.Frames() != 0 {
		t.Errorf("expected no frames before Init, got %d bytes", port.Len())
	}
	if !port.closed {
		t.Error("expected port closed")
	}
}

func TestPortWriterNames(t *testing.T) {
	var w portWriter = &fakePort{}
	if _, ok := w.(io.ByteWriter); ok {
		t.Error("port writers take a port address and must not look like io.ByteWriter")
	}
}

func TestSpinWaits(t *testing.T) {
	start := time.Now()
	spin(50 * time.Microsecond)
	if time.Since(start) < 50*time.Microsecond {
		t.Error("spin returned early")
	}
	spin(0)
}
