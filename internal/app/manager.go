package app

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
	"github.com/bft-labs/posefeed/internal/protocol"
	"github.com/bft-labs/posefeed/pkg/log"
)

// ManagerConfig holds the runtime settings of a Manager.
type ManagerConfig struct {
	// TrackerType is the fallback type id for tracker position reports.
	TrackerType int32

	// ReceiveBufferSize is the size of the loop's datagram buffer.
	ReceiveBufferSize int

	// ShutdownTimeout bounds how long StopReceiving waits for the loop.
	ShutdownTimeout time.Duration

	// EntityFilter restricts published samples to one entity. Empty admits all.
	EntityFilter string
}

// Manager owns the connection lifecycle: resolving the server, opening the
// transport, running the receive loop and tearing it all down again.
//
// Control operations are serialized. Queries (IsConnected, Latest, State)
// may be called from any goroutine at any time.
type Manager struct {
	cfg        ManagerConfig
	transport  ports.Transport
	logger     log.Logger
	lifecycle  *Lifecycle
	slot       *LatestSlot
	dispatcher *Dispatcher
	handler    Handler
	filter     *EntityFilter
	metrics    *metrics

	ctrl sync.Mutex

	mu       sync.Mutex
	state    domain.ConnectionState
	endpoint *ports.Endpoint
	conn     ports.Conn
	dict     *protocol.Dictionary
	stop     *atomic.Bool
	disposed bool
}

// NewManager creates a manager. handler may be nil, in which case no
// notifications are queued.
func NewManager(cfg ManagerConfig, transport ports.Transport, dispatcher *Dispatcher, handler Handler, logger log.Logger) (*Manager, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.ReceiveBufferSize <= 0 {
		cfg.ReceiveBufferSize = DefaultReceiveBufferSize
	}

	m, err := newMetrics(dispatcher.Pending)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:        cfg,
		transport:  transport,
		logger:     logger,
		lifecycle:  NewLifecycle(logger, m),
		slot:       NewLatestSlot(),
		dispatcher: dispatcher,
		handler:    handler,
		filter:     NewEntityFilter(cfg.EntityFilter),
		metrics:    m,
		state:      domain.Disconnected(),
	}, nil
}

// Initialize resolves host and opens the transport towards it, starting a new
// connection epoch. Any previous socket is released first. It fails with
// ErrAlreadyRunning while the receive loop runs.
func (m *Manager) Initialize(ctx context.Context, host string, port int) error {
	m.ctrl.Lock()
	defer m.ctrl.Unlock()

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return domain.ErrDisposed
	}
	if !m.lifecycle.CanStart() {
		m.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	prev := m.conn
	m.conn = nil
	m.endpoint = nil
	m.dict = protocol.NewDictionary()
	m.slot.Reset()
	m.state = domain.ConnectionState{Status: domain.StatusResolving}
	m.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	m.logger.Info("connecting",
		log.String("host", host),
		log.Int("port", port),
		log.Int32("tracker_type", m.cfg.TrackerType),
	)

	ep, err := m.transport.Resolve(ctx, host, port)
	var conn ports.Conn
	if err == nil {
		conn, err = m.transport.Open(ctx, ep)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state = domain.Faulted(err.Error())
		m.logFailure("connect failed", err)
		return err
	}

	m.endpoint = &ep
	m.conn = conn
	m.state = domain.ConnectionState{Status: domain.StatusConnected}

	m.logger.Info("connected",
		log.String("endpoint", ep.String()),
		log.String("local", localAddr(conn)),
	)
	return nil
}

// StartReceiving launches the receive loop. After a stop the socket is
// reopened towards the endpoint resolved by Initialize.
func (m *Manager) StartReceiving() error {
	m.ctrl.Lock()
	defer m.ctrl.Unlock()

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return domain.ErrDisposed
	}
	if !m.lifecycle.CanStart() {
		m.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	if m.endpoint == nil {
		m.mu.Unlock()
		return domain.ErrNotInitialized
	}
	ep := *m.endpoint
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		var err error
		conn, err = m.transport.Open(context.Background(), ep)
		if err != nil {
			m.mu.Lock()
			m.state = domain.Faulted(err.Error())
			m.mu.Unlock()
			m.logFailure("reopen failed", err)
			return err
		}
	}

	stop := new(atomic.Bool)
	recv := &Receiver{
		conn:        conn,
		dict:        m.dict,
		slot:        m.slot,
		dispatcher:  m.dispatcher,
		handler:     m.handler,
		filter:      m.filter,
		metrics:     m.metrics,
		logger:      log.With(m.logger, log.String("endpoint", ep.String())),
		stop:        stop,
		trackerType: m.cfg.TrackerType,
		bufferSize:  m.cfg.ReceiveBufferSize,
	}

	m.mu.Lock()
	if err := m.lifecycle.TransitionTo(StateRunning, "start requested"); err != nil {
		m.mu.Unlock()
		return err
	}
	m.conn = conn
	m.stop = stop
	m.state = domain.ConnectionState{Status: domain.StatusConnected}
	m.lifecycle.AddWorker()
	m.mu.Unlock()

	if m.handler != nil {
		m.dispatcher.Enqueue(m.handler.OnConnected)
	}

	go func() {
		defer m.lifecycle.WorkerDone()
		err := recv.Run()
		m.loopExited(conn, stop, err)
	}()

	m.logger.Info("receiving", log.String("endpoint", ep.String()))
	return nil
}

// loopExited handles a loop that returned without being asked to stop.
func (m *Manager) loopExited(conn ports.Conn, stop *atomic.Bool, err error) {
	m.mu.Lock()
	if stop.Load() {
		// StopReceiving owns the teardown.
		m.mu.Unlock()
		return
	}
	stop.Store(true)
	if m.conn == conn {
		m.conn = nil
	}
	reason := "receive loop exited"
	if err != nil {
		reason = err.Error()
		m.state = domain.Faulted(reason)
		_ = m.lifecycle.TransitionTo(StateStopped, loopFaultReason)
	} else {
		m.state = domain.Disconnected()
		_ = m.lifecycle.TransitionTo(StateStopped, reason)
	}
	m.mu.Unlock()

	_ = conn.Close()

	if err == nil {
		return
	}
	m.logFailure("connection lost", err)
	if m.handler != nil {
		m.dispatcher.Enqueue(func() { m.handler.OnConnectionLost(reason) })
	}
}

// StopReceiving signals the loop, closes the transport to unblock it and waits
// up to ShutdownTimeout for it to exit. It is idempotent. On timeout the loop
// is abandoned and ErrShutdownTimeout is returned.
func (m *Manager) StopReceiving() error {
	m.ctrl.Lock()
	defer m.ctrl.Unlock()
	return m.stopLocked()
}

func (m *Manager) stopLocked() error {
	m.mu.Lock()
	if !m.lifecycle.CanStop() {
		conn := m.conn
		m.conn = nil
		if m.state.Status == domain.StatusConnected {
			m.state = domain.Disconnected()
		}
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	m.stop.Store(true)
	_ = m.lifecycle.TransitionTo(StateStopping, "stop requested")
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	err := m.lifecycle.WaitWithTimeout(m.cfg.ShutdownTimeout)

	reason := "stopped"
	if err != nil {
		reason = "stop timed out"
	}

	m.mu.Lock()
	_ = m.lifecycle.TransitionTo(StateStopped, reason)
	m.state = domain.Disconnected()
	m.mu.Unlock()

	m.logger.Info("receiving stopped", log.String("reason", reason))
	return err
}

// Dispose stops the loop, releases the transport and unregisters metrics.
// Later control calls return ErrDisposed; a second Dispose is a no-op.
func (m *Manager) Dispose() error {
	m.ctrl.Lock()
	defer m.ctrl.Unlock()

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	err := m.stopLocked()

	m.mu.Lock()
	m.disposed = true
	m.endpoint = nil
	m.dict = nil
	m.state = domain.Disconnected()
	m.mu.Unlock()

	if merr := m.metrics.close(); merr != nil {
		m.logger.Warn("unregister metrics", log.Err(merr))
	}
	return err
}

// IsConnected reports whether the manager holds an open connection.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status == domain.StatusConnected
}

// State returns the connection state.
func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LoopState returns the receive loop's lifecycle state.
func (m *Manager) LoopState() State {
	return m.lifecycle.State()
}

// Endpoint returns the endpoint resolved by the last successful Initialize.
func (m *Manager) Endpoint() (ports.Endpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endpoint == nil {
		return ports.Endpoint{}, false
	}
	return *m.endpoint, true
}

// LocalAddr returns the local address of the open socket, or nil.
func (m *Manager) LocalAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.LocalAddr()
}

// Latest returns the most recent sample for entityID, or of any entity when
// entityID is empty.
func (m *Manager) Latest(entityID string) (domain.PoseSample, bool) {
	return m.slot.Read(entityID)
}

// Snapshot returns the latest sample of every entity.
func (m *Manager) Snapshot() map[string]domain.PoseSample {
	return m.slot.Snapshot()
}

// Entities returns the ids of every entity seen in this epoch.
func (m *Manager) Entities() []string {
	return m.slot.Entities()
}

// DrainOnce runs the queued notifications. Call it once per consumer tick.
func (m *Manager) DrainOnce() int {
	return m.dispatcher.DrainOnce()
}

// Pending returns the number of queued notifications.
func (m *Manager) Pending() int {
	return m.dispatcher.Pending()
}

// SetEntityFilter replaces the entity filter. It applies to the next datagram.
func (m *Manager) SetEntityFilter(name string) {
	if m.filter.Name() == name {
		return
	}
	m.filter.Set(name)
	m.logger.Info("entity filter changed", log.String("filter", name))
}

// EntityFilter returns the current entity filter.
func (m *Manager) EntityFilter() string {
	return m.filter.Name()
}

// Stats returns the receive counters.
func (m *Manager) Stats() Stats {
	return m.metrics.snapshot()
}

func (m *Manager) logFailure(msg string, err error) {
	fields := []log.Field{log.Err(err)}
	var se *domain.SocketError
	if errors.As(err, &se) {
		fields = append(fields, log.String("hint", se.Hint()))
	}
	m.logger.Error(msg, fields...)
}

func localAddr(c ports.Conn) string {
	if a := c.LocalAddr(); a != nil {
		return a.String()
	}
	return ""
}
