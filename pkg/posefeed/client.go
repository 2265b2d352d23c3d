package posefeed

import (
	"context"
	"net"
	"sync"

	"github.com/bft-labs/posefeed/internal/adapters/udp"
	"github.com/bft-labs/posefeed/internal/app"
	"github.com/bft-labs/posefeed/pkg/log"
)

// Client receives pose streams and exposes the latest pose of every entity.
// Use New() to create an instance, then Initialize() and Start().
//
// All methods are safe for concurrent use. EventHandler notifications only
// run inside DrainOnce.
type Client struct {
	config  Config
	manager *app.Manager
	logger  log.Logger
	plugins []Plugin

	ctx    context.Context
	cancel context.CancelFunc

	disposeOnce sync.Once
	disposeErr  error
}

// New creates a client with the given configuration and initializes its
// plugins. No socket is opened until Initialize.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNoopLogger()
	}

	transport := o.transport
	if transport == nil {
		udpOpts := []udp.Option{
			udp.WithReadTimeout(cfg.ReadTimeout),
			udp.WithSocketBuffer(cfg.SocketBuffer),
			udp.WithLogger(o.logger),
		}
		if cfg.Listen {
			udpOpts = append(udpOpts, udp.WithListen(cfg.ListenPort))
		}
		transport = udp.New(udpOpts...)
	}

	// A nil EventHandler must stay a nil app.Handler.
	var handler app.Handler
	if o.eventHandler != nil {
		handler = o.eventHandler
	}

	manager, err := app.NewManager(app.ManagerConfig{
		TrackerType:       cfg.TrackerType,
		ReceiveBufferSize: cfg.ReceiveBufferSize,
		ShutdownTimeout:   cfg.ShutdownTimeout,
		EntityFilter:      cfg.EntityFilter,
	}, transport, app.NewDispatcher(), handler, o.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		config:  cfg,
		manager: manager,
		logger:  o.logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	pluginCfg := PluginConfig{
		Config:     cfg,
		Controller: c,
		Logger:     o.logger,
	}
	for _, p := range o.plugins {
		if err := p.Initialize(ctx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			_ = c.Dispose()
			return nil, err
		}
		c.plugins = append(c.plugins, p)
		c.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	return c, nil
}

// Config returns the configuration the client was created with.
func (c *Client) Config() Config {
	return c.config
}

// Initialize resolves host and opens a socket towards it. It starts a new
// connection epoch: previously received poses and names are forgotten.
func (c *Client) Initialize(ctx context.Context, host string, port int) error {
	return c.manager.Initialize(ctx, host, port)
}

// Connect initializes towards Config.Server and Config.Port and starts
// receiving.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.manager.Initialize(ctx, c.config.Server, c.config.Port); err != nil {
		return err
	}
	return c.manager.StartReceiving()
}

// Start launches the background receive loop.
func (c *Client) Start() error {
	return c.manager.StartReceiving()
}

// Stop signals the receive loop, waits up to Config.ShutdownTimeout for it to
// exit and releases the socket. Calling Stop when not running is a no-op.
func (c *Client) Stop() error {
	return c.manager.StopReceiving()
}

// Dispose stops receiving, releases the socket and shuts plugins down.
// It is safe to call more than once.
func (c *Client) Dispose() error {
	c.disposeOnce.Do(func() {
		c.disposeErr = c.manager.Dispose()

		c.cancel()
		for i := len(c.plugins) - 1; i >= 0; i-- {
			p := c.plugins[i]
			if err := p.Shutdown(context.Background()); err != nil {
				c.logger.Error("plugin shutdown failed",
					log.String("plugin", p.Name()),
					log.Err(err))
			} else {
				c.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
			}
		}
	})
	return c.disposeErr
}

// IsConnected reports whether the client holds an open connection.
func (c *Client) IsConnected() bool {
	return c.manager.IsConnected()
}

// State returns the connection state, including the reason of a fault.
func (c *Client) State() ConnectionState {
	return c.manager.State()
}

// LoopState returns the receive loop's lifecycle state.
func (c *Client) LoopState() LoopState {
	return c.manager.LoopState()
}

// Latest returns the most recent pose of entityID. An empty id returns the
// most recent pose of any entity.
func (c *Client) Latest(entityID string) (PoseSample, bool) {
	return c.manager.Latest(entityID)
}

// Snapshot returns the latest pose of every entity.
func (c *Client) Snapshot() map[string]PoseSample {
	return c.manager.Snapshot()
}

// Entities returns the sorted ids of every entity seen since Initialize.
func (c *Client) Entities() []string {
	return c.manager.Entities()
}

// DrainOnce delivers queued notifications to the EventHandler on the calling
// goroutine and returns how many ran. Call it once per consumer tick.
func (c *Client) DrainOnce() int {
	return c.manager.DrainOnce()
}

// Pending returns the number of queued notifications.
func (c *Client) Pending() int {
	return c.manager.Pending()
}

// Stats returns the receive counters.
func (c *Client) Stats() Stats {
	return c.manager.Stats()
}

// EntityFilter returns the current entity filter.
func (c *Client) EntityFilter() string {
	return c.manager.EntityFilter()
}

// SetEntityFilter replaces the entity filter. It applies from the next datagram.
func (c *Client) SetEntityFilter(name string) {
	c.manager.SetEntityFilter(name)
}

// Endpoint returns the server resolved by the last successful Initialize.
func (c *Client) Endpoint() (Endpoint, bool) {
	return c.manager.Endpoint()
}

// LocalAddr returns the local address of the open socket, or nil.
func (c *Client) LocalAddr() net.Addr {
	return c.manager.LocalAddr()
}
