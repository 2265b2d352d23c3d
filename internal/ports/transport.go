package ports

import (
	"context"
	"net"
	"net/netip"
)

// Endpoint is a resolved server address.
type Endpoint struct {
	// Host is the address or hostname the endpoint was resolved from.
	Host string

	// Addr is the resolved IP address and port.
	Addr netip.AddrPort
}

// String returns the resolved address.
func (e Endpoint) String() string {
	return e.Addr.String()
}

// Port returns the server port.
func (e Endpoint) Port() int {
	return int(e.Addr.Port())
}

// Transport resolves server addresses and opens connections to them.
type Transport interface {
	// Resolve turns an address literal or hostname into an endpoint.
	// A literal is used directly; a hostname resolves to its first address.
	// Failures wrap domain.ErrResolution.
	Resolve(ctx context.Context, host string, port int) (Endpoint, error)

	// Open creates a socket bound for traffic from the endpoint.
	// Failures are *domain.SocketError values carrying the target port.
	Open(ctx context.Context, ep Endpoint) (Conn, error)
}

// Conn is an open datagram socket.
type Conn interface {
	// Receive blocks until a datagram is copied into buf and returns its length.
	// It returns domain.ErrClosed after Close, domain.ErrReceiveTimeout when the
	// read timeout elapses, and a *domain.SocketError for transport failures.
	Receive(buf []byte) (int, error)

	// Send writes one datagram to the endpoint.
	Send(b []byte) (int, error)

	// Close releases the socket and unblocks a pending Receive.
	// It is safe to call more than once and concurrently with Receive.
	Close() error

	// LocalAddr returns the local socket address.
	LocalAddr() net.Addr
}
