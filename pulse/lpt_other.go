//go:build !linux

package pulse

func openPort() (portWriter, error) {
	return nil, ErrUnsupported
}
