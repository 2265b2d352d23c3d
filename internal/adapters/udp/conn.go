package udp

import (
	"errors"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
)

// conn is an open UDP socket. Receive is called from the receive loop only;
// Close may be called from any goroutine.
type conn struct {
	udp         *net.UDPConn
	remote      netip.AddrPort
	connected   bool
	readTimeout time.Duration
	closed      atomic.Bool
}

func newConn(udp *net.UDPConn, ep ports.Endpoint, connected bool, readTimeout time.Duration) *conn {
	return &conn{
		udp:         udp,
		remote:      ep.Addr,
		connected:   connected,
		readTimeout: readTimeout,
	}
}

// Receive implements ports.Conn.
func (c *conn) Receive(buf []byte) (int, error) {
	for {
		if c.closed.Load() {
			return 0, domain.ErrClosed
		}
		if c.readTimeout > 0 {
			_ = c.udp.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		var (
			n    int
			from netip.AddrPort
			err  error
		)
		if c.connected {
			n, err = c.udp.Read(buf)
		} else {
			n, from, err = c.udp.ReadFromUDPAddrPort(buf)
		}
		if err != nil {
			return 0, c.classify("receive", err)
		}
		if !c.connected && from.Addr().Unmap() != c.remote.Addr() {
			continue
		}
		return n, nil
	}
}

// Send implements ports.Conn.
func (c *conn) Send(b []byte) (int, error) {
	var (
		n   int
		err error
	)
	if c.connected {
		n, err = c.udp.Write(b)
	} else {
		n, err = c.udp.WriteToUDPAddrPort(b, c.remote)
	}
	if err != nil {
		return n, c.classify("send", err)
	}
	return n, nil
}

// Close implements ports.Conn.
func (c *conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.udp.Close()
}

// LocalAddr implements ports.Conn.
func (c *conn) LocalAddr() net.Addr {
	return c.udp.LocalAddr()
}

// classify separates deliberate closure and read timeouts from transport failures.
func (c *conn) classify(op string, err error) error {
	if c.closed.Load() || errors.Is(err, net.ErrClosed) {
		return domain.ErrClosed
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrReceiveTimeout
	}
	return &domain.SocketError{Op: op, Addr: c.remote.String(), Port: int(c.remote.Port()), Err: err}
}

var _ ports.Conn = (*conn)(nil)
