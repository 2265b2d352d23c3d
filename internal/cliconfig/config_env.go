package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (POSEFEED_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("server", os.Getenv("POSEFEED_SERVER"), &cfg.Server)
	s.setString("entity", os.Getenv("POSEFEED_ENTITY"), &cfg.EntityFilter)
	s.setString("log-level", os.Getenv("POSEFEED_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("port", os.Getenv("POSEFEED_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setSignedIntFromString("tracker-type", os.Getenv("POSEFEED_TRACKER_TYPE"), &cfg.TrackerType); err != nil {
		return err
	}
	if err := s.setIntFromString("listen-port", os.Getenv("POSEFEED_LISTEN_PORT"), &cfg.ListenPort); err != nil {
		return err
	}
	if err := s.setIntFromString("receive-buffer", os.Getenv("POSEFEED_RECEIVE_BUFFER"), &cfg.ReceiveBuffer); err != nil {
		return err
	}
	if err := s.setIntFromString("socket-buffer", os.Getenv("POSEFEED_SOCKET_BUFFER"), &cfg.SocketBuffer); err != nil {
		return err
	}

	if err := s.setDuration("read-timeout", os.Getenv("POSEFEED_READ_TIMEOUT"), &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("tick", os.Getenv("POSEFEED_TICK_INTERVAL"), &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("POSEFEED_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("stats-interval", os.Getenv("POSEFEED_STATS_INTERVAL"), &cfg.StatsInterval); err != nil {
		return err
	}
	if err := s.setDuration("duration", os.Getenv("POSEFEED_DURATION"), &cfg.Duration); err != nil {
		return err
	}

	s.setBoolFromString("listen", os.Getenv("POSEFEED_LISTEN"), &cfg.Listen)

	return nil
}
