package posefeed

import (
	"context"

	"github.com/bft-labs/posefeed/pkg/log"
)

// Plugin extends a Client with optional behavior. Plugins are initialized in
// registration order by New and shut down in reverse order by Dispose.
type Plugin interface {
	// Name returns a unique identifier for the plugin.
	Name() string

	// Initialize starts the plugin. ctx is cancelled when the client is disposed.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// Controller is the subset of Client a plugin may drive.
type Controller interface {
	// EntityFilter returns the current entity filter.
	EntityFilter() string

	// SetEntityFilter replaces the entity filter while the client runs.
	SetEntityFilter(name string)

	// Endpoint returns the server the client was initialized with.
	Endpoint() (Endpoint, bool)
}

// PluginConfig is passed to Plugin.Initialize.
type PluginConfig struct {
	// Config is the client configuration.
	Config Config

	// Controller gives the plugin access to the running client.
	Controller Controller

	// Logger is the client's logger.
	Logger log.Logger
}

// BasePlugin provides no-op implementations of all Plugin methods.
type BasePlugin struct {
	PluginName string
}

func (p BasePlugin) Name() string                                         { return p.PluginName }
func (BasePlugin) Initialize(ctx context.Context, cfg PluginConfig) error { return nil }
func (BasePlugin) Shutdown(ctx context.Context) error                     { return nil }
