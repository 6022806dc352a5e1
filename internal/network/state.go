package network

// State is a bring-up state.
type State int

// Bring-up states in order.
const (
	Idle State = iota
	Connecting
	Connected
	SessionStarting
	SessionActive
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case SessionStarting:
		return "session_starting"
	case SessionActive:
		return "session_active"
	default:
		return "unknown"
	}
}
