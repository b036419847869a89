package rpc

// State is the lifecycle position of a connection to the probe.
type State int32

const (
	// Idle is the state before the first connection attempt.
	Idle State = iota
	Connecting
	Open
	Linked
	Degraded
	Closed
)

// String returns the lower-case state name used in logs and status output.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Linked:
		return "linked"
	case Degraded:
		return "degraded"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
