package domain

import (
	"errors"
	"fmt"
	"strconv"
)

// Domain errors represent error conditions in the posefeed pipeline.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrResolution is returned when the server hostname cannot be resolved.
	ErrResolution = errors.New("posefeed: address resolution failed")

	// ErrSocket is returned when a socket cannot be opened or fails during receive.
	ErrSocket = errors.New("posefeed: socket error")

	// ErrClosed is returned by a receive that was interrupted by a deliberate close.
	ErrClosed = errors.New("posefeed: transport closed")

	// ErrReceiveTimeout is returned when no datagram arrived within the read timeout.
	ErrReceiveTimeout = errors.New("posefeed: receive timeout")

	// ErrTruncated is returned when a frame is shorter than its header or declared length.
	ErrTruncated = errors.New("posefeed: truncated frame")

	// ErrMalformedField is returned when a frame field holds an impossible value.
	ErrMalformedField = errors.New("posefeed: malformed field")

	// ErrAlreadyRunning is returned when StartReceiving is called while the loop runs.
	ErrAlreadyRunning = errors.New("posefeed: already running")

	// ErrNotRunning is returned for transitions that require a running loop.
	ErrNotRunning = errors.New("posefeed: not running")

	// ErrNotInitialized is returned when StartReceiving is called without a successful Initialize.
	ErrNotInitialized = errors.New("posefeed: not initialized")

	// ErrShutdownTimeout is returned when the receive loop does not exit in time.
	ErrShutdownTimeout = errors.New("posefeed: shutdown timeout")

	// ErrDisposed is returned for any operation on a disposed client.
	ErrDisposed = errors.New("posefeed: disposed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("posefeed: invalid configuration")
)

// SocketError describes a failed socket operation against a server port.
type SocketError struct {
	Op   string
	Addr string
	Port int
	Err  error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("posefeed: %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying error.
func (e *SocketError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSocket) match any SocketError.
func (e *SocketError) Is(target error) bool { return target == ErrSocket }

// Hint returns user-facing remediation text for the failure.
func (e *SocketError) Hint() string {
	return "check that a firewall allows UDP traffic on port " + strconv.Itoa(e.Port)
}
