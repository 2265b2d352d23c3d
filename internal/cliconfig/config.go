package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/posefeed/pkg/posefeed"
)

// Config holds CLI configuration for posefeed.
type Config struct {
	Server       string
	Port         int
	EntityFilter string
	TrackerType  int

	Listen     bool
	ListenPort int

	ReadTimeout     time.Duration
	TickInterval    time.Duration
	ShutdownTimeout time.Duration
	StatsInterval   time.Duration
	Duration        time.Duration

	ReceiveBuffer int
	SocketBuffer  int

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	lib := posefeed.DefaultConfig()
	return Config{
		Server:          lib.Server,
		Port:            lib.Port,
		ReadTimeout:     lib.ReadTimeout,
		TickInterval:    16 * time.Millisecond, // ~60 Hz
		ShutdownTimeout: lib.ShutdownTimeout,
		ReceiveBuffer:   lib.ReceiveBufferSize,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Listen && (c.ListenPort < 0 || c.ListenPort > 65535) {
		return fmt.Errorf("listen port %d out of range", c.ListenPort)
	}
	if int64(c.TrackerType) != int64(int32(c.TrackerType)) {
		return fmt.Errorf("tracker type %d out of range", c.TrackerType)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.StatsInterval < 0 {
		return fmt.Errorf("stats interval must not be negative")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// Client converts the CLI configuration into a library configuration.
func (c Config) Client() posefeed.Config {
	return posefeed.Config{
		Server:            c.Server,
		Port:              c.Port,
		EntityFilter:      c.EntityFilter,
		TrackerType:       int32(c.TrackerType),
		Listen:            c.Listen,
		ListenPort:        c.ListenPort,
		ReadTimeout:       c.ReadTimeout,
		ShutdownTimeout:   c.ShutdownTimeout,
		ReceiveBufferSize: c.ReceiveBuffer,
		SocketBuffer:      c.SocketBuffer,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setIntPtr sets an int from a pointer if not nil and flag not changed.
// Unlike setInt, zero and negative values are kept.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setSignedIntFromString is setIntFromString for settings where zero and
// negative values are meaningful.
func (s *configSetter) setSignedIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
