//go:build !(linux && (amd64 || 386))

package hwio

// Unsupported refuses to grant port access
type Unsupported struct{}

func platformPortIO() PortIO {
	return Unsupported{}
}

func (Unsupported) Enable(Range) error  { return ErrUnsupported }
func (Unsupported) Disable(Range) error { return nil }
func (Unsupported) Name() string        { return "unsupported" }
