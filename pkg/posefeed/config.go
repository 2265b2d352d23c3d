package posefeed

import (
	"fmt"
	"time"

	"github.com/bft-labs/posefeed/internal/adapters/udp"
	"github.com/bft-labs/posefeed/internal/app"
)

// DefaultPort is the conventional port of a pose server.
const DefaultPort = 3883

// Config holds the configuration of a Client.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Server is the hostname or address literal used by Connect.
	Server string

	// Port is the server port used by Connect.
	Port int

	// EntityFilter restricts published samples to one entity and its sensors.
	// Empty admits every entity.
	EntityFilter string

	// TrackerType is the type id treated as a pose report when the server
	// does not announce its types.
	TrackerType int32

	// Listen binds a local port instead of connecting to the server, for
	// servers that push to a fixed client port.
	Listen bool

	// ListenPort is the local port bound when Listen is set.
	ListenPort int

	// ReadTimeout bounds each socket read so the loop can observe a stop.
	ReadTimeout time.Duration

	// ShutdownTimeout bounds how long Stop waits for the receive loop.
	ShutdownTimeout time.Duration

	// ReceiveBufferSize is the largest datagram the loop reads.
	ReceiveBufferSize int

	// SocketBuffer sets the kernel receive buffer size. Zero keeps the default.
	SocketBuffer int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Server:            "localhost",
		Port:              DefaultPort,
		ReadTimeout:       udp.DefaultReadTimeout,
		ShutdownTimeout:   app.DefaultShutdownTimeout,
		ReceiveBufferSize: app.DefaultReceiveBufferSize,
	}
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReceiveBufferSize <= 0 {
		c.ReceiveBufferSize = d.ReceiveBufferSize
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.Listen && (c.ListenPort < 0 || c.ListenPort > 65535) {
		return fmt.Errorf("%w: listen port %d out of range", ErrInvalidConfig, c.ListenPort)
	}
	if c.ReceiveBufferSize < 1024 {
		return fmt.Errorf("%w: receive buffer %d too small", ErrInvalidConfig, c.ReceiveBufferSize)
	}
	if c.SocketBuffer < 0 {
		return fmt.Errorf("%w: negative socket buffer", ErrInvalidConfig)
	}
	return nil
}
