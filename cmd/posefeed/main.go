package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/posefeed/internal/cliconfig"
	"github.com/bft-labs/posefeed/pkg/log"
	"github.com/bft-labs/posefeed/pkg/posefeed"
	"github.com/bft-labs/posefeed/plugins/configwatcher"
)

const helpDescription = `
Receive motion-capture poses over UDP and print the latest pose of every
tracked entity once per tick.

Highlights:
  - Decodes tracker streams on a background goroutine; the tick loop never blocks.
  - Configure via file, env (POSEFEED_*), or flags.
  - Edits to the entity filter in the config file apply without restarting.
`

var exampleUsage = strings.TrimSpace(`
  posefeed --server 192.168.1.20 --entity rigid1
  posefeed --config $HOME/.posefeed/config.toml --duration 30s
  posefeed simulate --target 127.0.0.1 --entities 3
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:          "posefeed",
		Short:        "Receive motion-capture poses over UDP",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Determine config path
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			if err := loadConfig(cmd, &cfg, cfgFile); err != nil {
				return err
			}

			logger := cliconfig.NewLogger(cfg.LogLevel)
			logger.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, cfgFile, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.posefeed/config.toml)")
	root.Flags().StringVar(&cfg.Server, "server", cfg.Server, "tracker server hostname or address")
	root.Flags().IntVar(&cfg.Port, "port", cfg.Port, "tracker server port")
	root.Flags().StringVar(&cfg.EntityFilter, "entity", cfg.EntityFilter, "only publish this entity and its sensors")
	root.Flags().IntVar(&cfg.TrackerType, "tracker-type", cfg.TrackerType, "type id of pose reports when the server does not announce types")

	root.Flags().BoolVar(&cfg.Listen, "listen", cfg.Listen, "bind a local port instead of connecting to the server")
	root.Flags().IntVar(&cfg.ListenPort, "listen-port", cfg.ListenPort, "local port bound with --listen")

	root.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "socket read timeout (bounds stop latency)")
	root.Flags().DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "consumer tick interval")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "maximum wait for the receive loop on stop")
	root.Flags().DurationVar(&cfg.StatsInterval, "stats-interval", cfg.StatsInterval, "log receive counters at this interval (0 disables)")
	root.Flags().DurationVar(&cfg.Duration, "duration", cfg.Duration, "stop after this long (0 runs until interrupted)")

	root.Flags().IntVar(&cfg.ReceiveBuffer, "receive-buffer", cfg.ReceiveBuffer, "largest datagram read, in bytes")
	root.Flags().IntVar(&cfg.SocketBuffer, "socket-buffer", cfg.SocketBuffer, "kernel receive buffer size in bytes (0 keeps the default)")
	if err := root.Flags().MarkHidden("socket-buffer"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newSimulateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers the config file and POSEFEED_* environment under the flags
// that were set explicitly, then validates the result.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgFile string) error {
	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}

func run(parent context.Context, cfg cliconfig.Config, cfgFile string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	printer := newPosePrinter(os.Stdout)

	opts := []posefeed.Option{
		posefeed.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		posefeed.WithEventHandler(printer),
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		wcfg := configwatcher.DefaultConfig()
		wcfg.Path = cfgFile
		opts = append(opts, configwatcher.WithConfigWatcher(wcfg))
	}

	client, err := posefeed.New(cfg.Client(), opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if err := client.Dispose(); err != nil {
			logger.Warn().Err(err).Msg("dispose")
		}
	}()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 10*time.Second)
	err = client.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		var se *posefeed.SocketError
		if errors.As(err, &se) {
			logger.Error().Str("hint", se.Hint()).Msg("socket unavailable")
		}
		return fmt.Errorf("connect: %w", err)
	}

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	var statsC <-chan time.Time
	if cfg.StatsInterval > 0 {
		statsTicker := time.NewTicker(cfg.StatsInterval)
		defer statsTicker.Stop()
		statsC = statsTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopping")
			client.DrainOnce()
			printer.flush(client)
			return nil

		case <-ticker.C:
			client.DrainOnce()
			printer.flush(client)
			if printer.lost != "" {
				return fmt.Errorf("connection lost: %s", printer.lost)
			}

		case <-statsC:
			s := client.Stats()
			logger.Info().
				Uint64("datagrams", s.Datagrams).
				Uint64("samples", s.Samples).
				Uint64("decode_errors", s.DecodeErrors).
				Uint64("stale", s.Stale).
				Uint64("filtered", s.Filtered).
				Uint64("faults", s.Faults).
				Int("entities", len(client.Entities())).
				Msg("stats")
		}
	}
}
