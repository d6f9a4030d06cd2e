package pulse

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"

	"steprt/core"
	"steprt/protocol"
)

// Serial forwards each step as a frame to a microcontroller that generates
// the electrical pulse itself
type Serial struct {
	port  io.ReadWriteCloser
	enc   *protocol.Encoder
	args  [1]int32
	ready bool

	frames atomic.Uint64
	errors atomic.Uint64
}

// OpenSerial opens device at baud
func OpenSerial(device string, baud int) (*Serial, error) {
	if device == "" {
		return nil, fmt.Errorf("serial: device required")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	return NewSerial(port), nil
}

// NewSerial wraps an already open port
func NewSerial(port io.ReadWriteCloser) *Serial {
	return &Serial{
		port: port,
		enc:  protocol.NewEncoder(),
	}
}

// Init resets the remote step generator
func (s *Serial) Init() error {
	if err := s.send(protocol.CmdReset, nil); err != nil {
		return fmt.Errorf("serial: reset: %w", err)
	}
	s.ready = true
	return nil
}

// Step sends one step frame carrying the direction
func (s *Serial) Step(dir core.Direction) {
	s.args[0] = int32(dir)
	if err := s.send(protocol.CmdStep, s.args[:]); err != nil {
		s.errors.Add(1)
	}
}

func (s *Serial) send(cmd uint32, args []int32) error {
	frame, err := s.enc.Encode(cmd, args)
	if err != nil {
		return err
	}
	if _, err := s.port.Write(frame); err != nil {
		return err
	}
	s.frames.Add(1)
	return nil
}

// Close tells the remote side to stop and closes the port. A port that was
// never reset is closed without a frame.
func (s *Serial) Close() error {
	var serr error
	if s.ready {
		serr = s.send(protocol.CmdStop, nil)
		s.ready = false
	}
	cerr := s.port.Close()
	if serr != nil {
		return fmt.Errorf("serial: stop: %w", serr)
	}
	return cerr
}

func (s *Serial) Name() string { return DriverSerial }

// Frames returns the number of frames written
func (s *Serial) Frames() uint64 {
	return s.frames.Load()
}

// Errors returns the number of step frames that failed to send
func (s *Serial) Errors() uint64 {
	return s.errors.Load()
}
