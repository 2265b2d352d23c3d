// Package udp implements the transport ports over UDP sockets.
package udp

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
	"github.com/bft-labs/posefeed/pkg/log"
)

// DefaultReadTimeout bounds how long Receive blocks before re-checking for shutdown.
const DefaultReadTimeout = 250 * time.Millisecond

// Transport opens UDP sockets to a tracker server.
type Transport struct {
	resolver     *net.Resolver
	readTimeout  time.Duration
	listen       bool
	localPort    int
	socketBuffer int
	logger       log.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithReadTimeout sets the per-receive timeout. Zero blocks until data or close.
func WithReadTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d >= 0 {
			t.readTimeout = d
		}
	}
}

// WithListen binds an unconnected socket on the local port instead of
// connecting to the server. Datagrams from other hosts are discarded.
func WithListen(port int) Option {
	return func(t *Transport) {
		t.listen = true
		t.localPort = port
	}
}

// WithSocketBuffer sets the kernel receive buffer size in bytes.
func WithSocketBuffer(n int) Option {
	return func(t *Transport) {
		if n > 0 {
			t.socketBuffer = n
		}
	}
}

// WithResolver sets the resolver used for hostnames.
func WithResolver(r *net.Resolver) Option {
	return func(t *Transport) {
		if r != nil {
			t.resolver = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a UDP transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		resolver:    net.DefaultResolver,
		readTimeout: DefaultReadTimeout,
		logger:      log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resolve implements ports.Transport.
func (t *Transport) Resolve(ctx context.Context, host string, port int) (ports.Endpoint, error) {
	if port <= 0 || port > 65535 {
		return ports.Endpoint{}, fmt.Errorf("%w: port %d out of range", domain.ErrResolution, port)
	}
	if host == "" {
		return ports.Endpoint{}, fmt.Errorf("%w: empty host", domain.ErrResolution)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return ports.Endpoint{Host: host, Addr: netip.AddrPortFrom(addr.Unmap(), uint16(port))}, nil
	}

	addrs, err := t.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return ports.Endpoint{}, fmt.Errorf("%w: %s: %v", domain.ErrResolution, host, err)
	}
	if len(addrs) == 0 {
		return ports.Endpoint{}, fmt.Errorf("%w: %s: no addresses", domain.ErrResolution, host)
	}

	ep := ports.Endpoint{Host: host, Addr: netip.AddrPortFrom(addrs[0].Unmap(), uint16(port))}
	t.logger.Debug("resolved server",
		log.String("host", host),
		log.String("addr", ep.String()),
		log.Int("candidates", len(addrs)),
	)
	return ep, nil
}

// Open implements ports.Transport.
func (t *Transport) Open(ctx context.Context, ep ports.Endpoint) (ports.Conn, error) {
	if t.listen {
		lc := net.ListenConfig{Control: t.control}
		local := net.JoinHostPort("", strconv.Itoa(t.localPort))
		pc, err := lc.ListenPacket(ctx, "udp", local)
		if err != nil {
			return nil, &domain.SocketError{Op: "bind", Addr: local, Port: t.localPort, Err: err}
		}
		return newConn(pc.(*net.UDPConn), ep, false, t.readTimeout), nil
	}

	d := net.Dialer{Control: t.control}
	c, err := d.DialContext(ctx, "udp", ep.String())
	if err != nil {
		return nil, &domain.SocketError{Op: "connect", Addr: ep.String(), Port: ep.Port(), Err: err}
	}
	return newConn(c.(*net.UDPConn), ep, true, t.readTimeout), nil
}

var _ ports.Transport = (*Transport)(nil)
