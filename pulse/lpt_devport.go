//go:build linux && !(amd64 || 386)

package pulse

import (
	"golang.org/x/sys/unix"
)

const devPort = "/dev/port"

// portFile writes ports through /dev/port, where the file offset is the
// port address. Used where the CPU has no port instructions.
type portFile struct {
	fd  int
	buf [1]byte
}

func openPort() (portWriter, error) {
	fd, err := unix.Open(devPort, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &portFile{fd: fd}, nil
}

func (p *portFile) WritePort(port uint16, v byte) error {
	p.buf[0] = v
	_, err := unix.Pwrite(p.fd, p.buf[:], int64(port))
	return err
}

func (p *portFile) Close() error {
	return unix.Close(p.fd)
}
