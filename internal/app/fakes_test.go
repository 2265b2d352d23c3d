package app

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
)

// fakeConn feeds queued datagrams to Receive and reports a timeout when idle.
type fakeConn struct {
	frames chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once

	// ignoreClose keeps Receive blocked after Close, like a stuck socket.
	// entered is closed once Receive is blocked.
	ignoreClose bool
	release     chan struct{}
	entered     chan struct{}
	enterOnce   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames:  make(chan []byte, 64),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
}

func (c *fakeConn) Receive(buf []byte) (int, error) {
	if c.ignoreClose {
		c.enterOnce.Do(func() { close(c.entered) })
		<-c.release
		return 0, domain.ErrClosed
	}
	select {
	case <-c.closed:
		return 0, domain.ErrClosed
	case f := <-c.frames:
		return copy(buf, f), nil
	case err := <-c.errs:
		return 0, err
	case <-time.After(10 * time.Millisecond):
		return 0, domain.ErrReceiveTimeout
	}
}

func (c *fakeConn) Send(b []byte) (int, error) { return len(b), nil }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

// fakeTransport resolves every host to loopback and hands out fakeConns.
type fakeTransport struct {
	mu         sync.Mutex
	conns      []*fakeConn
	resolveErr error
	openErr    error
	newConn    func() *fakeConn
}

func (t *fakeTransport) Resolve(ctx context.Context, host string, port int) (ports.Endpoint, error) {
	if t.resolveErr != nil {
		return ports.Endpoint{}, t.resolveErr
	}
	return ports.Endpoint{
		Host: host,
		Addr: netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(port)),
	}, nil
}

func (t *fakeTransport) Open(ctx context.Context, ep ports.Endpoint) (ports.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openErr != nil {
		return nil, t.openErr
	}
	c := newFakeConn()
	if t.newConn != nil {
		c = t.newConn()
	}
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) last() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

func (t *fakeTransport) opened() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// recordingHandler records notifications in delivery order.
type recordingHandler struct {
	mu        sync.Mutex
	connected int
	lost      []string
	samples   []domain.PoseSample
}

func (h *recordingHandler) OnConnected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnConnectionLost(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lost = append(h.lost, reason)
}

func (h *recordingHandler) OnSampleUpdated(s domain.PoseSample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, s)
}

func (h *recordingHandler) counts() (connected, lost, samples int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected, len(h.lost), len(h.samples)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
