package cliconfig

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server != "localhost" {
		t.Errorf("Server = %v, want localhost", cfg.Server)
	}
	if cfg.Port != 3883 {
		t.Errorf("Port = %v, want 3883", cfg.Port)
	}
	if cfg.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", cfg.ReadTimeout)
	}
	if cfg.Duration != 0 {
		t.Errorf("Duration = %v, want 0 (run until signal)", cfg.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing server", func(c *Config) { c.Server = "" }, true},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 65536 }, true},
		{"listen port too large", func(c *Config) { c.Listen = true; c.ListenPort = 70000 }, true},
		{"listen port ignored when not listening", func(c *Config) { c.ListenPort = 70000 }, false},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, true},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, true},
		{"negative stats interval", func(c *Config) { c.StatsInterval = -time.Second }, true},
		{"negative duration", func(c *Config) { c.Duration = -time.Second }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Client(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server = "10.0.0.5"
	cfg.Port = 3884
	cfg.EntityFilter = "wand"
	cfg.TrackerType = 7
	cfg.Listen = true
	cfg.ListenPort = 5000
	cfg.SocketBuffer = 1 << 20

	lib := cfg.Client()

	if lib.Server != "10.0.0.5" || lib.Port != 3884 {
		t.Errorf("endpoint = %s:%d", lib.Server, lib.Port)
	}
	if lib.EntityFilter != "wand" || lib.TrackerType != 7 {
		t.Errorf("filter/type = %q/%d", lib.EntityFilter, lib.TrackerType)
	}
	if !lib.Listen || lib.ListenPort != 5000 || lib.SocketBuffer != 1<<20 {
		t.Errorf("socket settings = %+v", lib)
	}
	if lib.ReadTimeout != cfg.ReadTimeout || lib.ShutdownTimeout != cfg.ShutdownTimeout {
		t.Errorf("timeouts = %v/%v", lib.ReadTimeout, lib.ShutdownTimeout)
	}
}

func TestNewLogger(t *testing.T) {
	if got := NewLogger("debug").GetLevel().String(); got != "debug" {
		t.Errorf("NewLogger(debug) level = %s", got)
	}
	if got := NewLogger("nonsense").GetLevel().String(); got != "info" {
		t.Errorf("NewLogger(nonsense) level = %s, want info", got)
	}
}
