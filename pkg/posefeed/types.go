package posefeed

import (
	"github.com/bft-labs/posefeed/internal/app"
	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
	"github.com/bft-labs/posefeed/pkg/log"
)

// Re-exported types. Users can implement Transport and Conn to replace the
// UDP socket.
type (
	// PoseSample is one decoded pose.
	PoseSample = domain.PoseSample

	// ConnectionState is the link status plus, when faulted, the reason.
	ConnectionState = domain.ConnectionState

	// ConnectionStatus enumerates link statuses.
	ConnectionStatus = domain.ConnectionStatus

	// SocketError is a socket operation failure carrying a remediation hint.
	SocketError = domain.SocketError

	// Stats holds receive counters.
	Stats = app.Stats

	// LoopState is the lifecycle state of the receive loop.
	LoopState = app.State

	// Endpoint is a resolved server address.
	Endpoint = ports.Endpoint

	// Transport resolves servers and opens sockets.
	Transport = ports.Transport

	// Conn is an open datagram socket.
	Conn = ports.Conn

	// Logger is the interface for structured logging.
	Logger = log.Logger
)

// Connection statuses.
const (
	StatusDisconnected = domain.StatusDisconnected
	StatusResolving    = domain.StatusResolving
	StatusConnected    = domain.StatusConnected
	StatusFaulted      = domain.StatusFaulted
)

// Receive loop states.
const (
	LoopIdle     = app.StateIdle
	LoopRunning  = app.StateRunning
	LoopStopping = app.StateStopping
	LoopStopped  = app.StateStopped
)

// Errors returned by Client operations. Use errors.Is to test for them.
var (
	ErrResolution      = domain.ErrResolution
	ErrSocket          = domain.ErrSocket
	ErrClosed          = domain.ErrClosed
	ErrReceiveTimeout  = domain.ErrReceiveTimeout
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotInitialized  = domain.ErrNotInitialized
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrDisposed        = domain.ErrDisposed
	ErrInvalidConfig   = domain.ErrInvalidConfig
)
