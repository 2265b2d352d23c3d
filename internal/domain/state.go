package domain

// ConnectionStatus enumerates the connection manager's link states.
type ConnectionStatus int

const (
	StatusDisconnected ConnectionStatus = iota
	StatusResolving
	StatusConnected
	StatusFaulted
)

// String returns a human-readable representation of the status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusResolving:
		return "Resolving"
	case StatusConnected:
		return "Connected"
	case StatusFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// ConnectionState is the link status plus, for StatusFaulted, the reason.
type ConnectionState struct {
	Status ConnectionStatus
	Reason string
}

// String returns the status, followed by the reason when faulted.
func (c ConnectionState) String() string {
	if c.Status == StatusFaulted && c.Reason != "" {
		return c.Status.String() + "(" + c.Reason + ")"
	}
	return c.Status.String()
}

// Disconnected returns the idle connection state.
func Disconnected() ConnectionState {
	return ConnectionState{Status: StatusDisconnected}
}

// Faulted returns a faulted connection state carrying reason.
func Faulted(reason string) ConnectionState {
	return ConnectionState{Status: StatusFaulted, Reason: reason}
}
