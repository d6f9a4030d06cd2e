package lifecycle

// State is a stage of one run
type State uint32

const (
	Idle State = iota
	Configuring
	Locked
	ThreadLaunched
	Running
	JoinedOrFailed
	Cleanup
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Locked:
		return "locked"
	case ThreadLaunched:
		return "thread-launched"
	case Running:
		return "running"
	case JoinedOrFailed:
		return "joined"
	case Cleanup:
		return "cleanup"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
