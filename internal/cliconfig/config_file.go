package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Server          string `toml:"server"`
	Port            int    `toml:"port"`
	EntityFilter    string `toml:"entity_filter"`
	TrackerType     *int   `toml:"tracker_type"`
	Listen          *bool  `toml:"listen"`
	ListenPort      int    `toml:"listen_port"`
	ReadTimeout     string `toml:"read_timeout"`
	TickInterval    string `toml:"tick_interval"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	StatsInterval   string `toml:"stats_interval"`
	Duration        string `toml:"duration"`
	ReceiveBuffer   int    `toml:"receive_buffer"`
	SocketBuffer    int    `toml:"socket_buffer"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.posefeed/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".posefeed", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server", fc.Server, &cfg.Server)
	s.setString("entity", fc.EntityFilter, &cfg.EntityFilter)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("port", fc.Port, &cfg.Port)
	s.setIntPtr("tracker-type", fc.TrackerType, &cfg.TrackerType)
	s.setInt("listen-port", fc.ListenPort, &cfg.ListenPort)
	s.setInt("receive-buffer", fc.ReceiveBuffer, &cfg.ReceiveBuffer)
	s.setInt("socket-buffer", fc.SocketBuffer, &cfg.SocketBuffer)

	if err := s.setDuration("read-timeout", fc.ReadTimeout, &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("tick", fc.TickInterval, &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("stats-interval", fc.StatsInterval, &cfg.StatsInterval); err != nil {
		return err
	}
	if err := s.setDuration("duration", fc.Duration, &cfg.Duration); err != nil {
		return err
	}

	s.setBool("listen", fc.Listen, &cfg.Listen)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
