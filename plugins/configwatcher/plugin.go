// Package configwatcher reloads the posefeed config file when it changes.
// The entity filter is applied to the running client; a changed server or
// port is only reported, since switching servers needs an explicit reconnect.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/posefeed/internal/cliconfig"
	"github.com/bft-labs/posefeed/pkg/log"
	"github.com/bft-labs/posefeed/pkg/posefeed"
)

// Plugin watches a TOML config file and applies hot-reloadable settings.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	logger     log.Logger
	controller posefeed.Controller
	server     string
	port       int
	fileFilter string
	watcher    *fsnotify.Watcher
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	debounce   *time.Timer
	reloads    int
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the config file to watch.
	Path string

	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config watching the default config path.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// WithConfigWatcher returns a posefeed Option that enables config file watching.
//
// Usage:
//
//	client, err := posefeed.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        Path: "/etc/posefeed/config.toml",
//	    }),
//	)
func WithConfigWatcher(cfg Config) posefeed.Option {
	return posefeed.WithPlugin(New(cfg))
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching the config file's directory.
func (p *Plugin) Initialize(ctx context.Context, cfg posefeed.PluginConfig) error {
	p.mu.Lock()
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.logger = log.With(p.logger, log.String("plugin", p.Name()))
	p.controller = cfg.Controller
	p.server = cfg.Config.Server
	p.port = cfg.Config.Port
	p.mu.Unlock()

	if p.path == "" || p.controller == nil {
		p.logger.Warn("config watcher disabled: no config path")
		return nil
	}

	// Only later edits to entity_filter reach the client, so a filter given
	// by flag or environment survives unrelated edits.
	if fc, err := cliconfig.LoadFileConfig(p.path); err == nil {
		p.mu.Lock()
		p.fileFilter = fc.EntityFilter
		p.mu.Unlock()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		p.logger.Warn("config watcher disabled: cannot watch directory",
			log.String("path", p.path),
			log.Err(err))
		return nil
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	p.logger.Info("config watcher started", log.String("path", p.path))
	return nil
}

// Shutdown stops the config watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloads returns how many times the config file was applied.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if fc.EntityFilter != p.fileFilter {
		p.fileFilter = fc.EntityFilter
		if fc.EntityFilter != p.controller.EntityFilter() {
			p.controller.SetEntityFilter(fc.EntityFilter)
		}
	}

	server, port := p.server, p.port
	if fc.Server != "" {
		server = fc.Server
	}
	if fc.Port > 0 {
		port = fc.Port
	}
	if server != p.server || port != p.port {
		p.logger.Warn("server changed in config; reconnect to apply",
			log.String("server", server),
			log.Int("port", port))
		p.server, p.port = server, port
	}

	p.reloads++
	p.logger.Debug("config reloaded", log.String("path", p.path))
}
