package dyson

// ConnectionState tracks the session's link to its appliance.
//
// Connected is the only state in which polling and publishing are permitted.
// The poll timer is armed exclusively on the transition into Connected and
// disarmed on every transition away from it.
type ConnectionState int

const (
	// StateDisconnected is the initial state before Start.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the transport is attempting the first connect.
	StateConnecting

	// StateConnected means the link is up, the status topic is subscribed,
	// and polling is running.
	StateConnected

	// StateReconnecting means the link dropped and the transport is
	// retrying.
	StateReconnecting

	// StateOffline means the appliance has been unreachable long enough
	// that reconnect attempts have backed off.
	StateOffline

	// StateEnded means the session was closed; terminal.
	StateEnded
)

// String returns the state name for logging.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateOffline:
		return "offline"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}
