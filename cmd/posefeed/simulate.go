package main

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/posefeed/internal/adapters/udp"
	"github.com/bft-labs/posefeed/internal/cliconfig"
	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/protocol"
	"github.com/bft-labs/posefeed/pkg/log"
)

// simulateOptions configures the synthetic pose source.
type simulateOptions struct {
	target   string
	port     int
	entities int
	sensors  int
	rate     float64
	duration time.Duration
	prefix   string
	logLevel string
}

func newSimulateCommand() *cobra.Command {
	o := simulateOptions{
		target:   "127.0.0.1",
		port:     3883,
		entities: 1,
		sensors:  1,
		rate:     120,
		prefix:   "rigid",
		logLevel: "info",
	}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send synthetic tracker datagrams for local testing",
		Long: `Send a stream of synthetic pose datagrams to a target address. Each
entity moves on a circle and spins about the vertical axis. Sender names are
announced at startup and once per second.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.entities < 1 || o.sensors < 1 {
				return fmt.Errorf("entities and sensors must be positive")
			}
			if o.rate <= 0 {
				return fmt.Errorf("rate must be positive")
			}
			logger := cliconfig.NewLogger(o.logLevel)
			return simulate(cmd.Context(), o, log.NewZerologAdapterWithLogger(logger))
		},
	}

	cmd.Flags().StringVar(&o.target, "target", o.target, "address to send datagrams to")
	cmd.Flags().IntVar(&o.port, "port", o.port, "target port")
	cmd.Flags().IntVar(&o.entities, "entities", o.entities, "number of simulated rigid bodies")
	cmd.Flags().IntVar(&o.sensors, "sensors", o.sensors, "sensors per rigid body")
	cmd.Flags().Float64Var(&o.rate, "rate", o.rate, "datagrams per second")
	cmd.Flags().DurationVar(&o.duration, "duration", o.duration, "stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&o.prefix, "prefix", o.prefix, "sender name prefix")
	cmd.Flags().StringVar(&o.logLevel, "log-level", o.logLevel, "log level")
	return cmd
}

func simulate(parent context.Context, o simulateOptions, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	transport := udp.New(udp.WithLogger(logger))
	ep, err := transport.Resolve(ctx, o.target, o.port)
	if err != nil {
		return err
	}
	conn, err := transport.Open(ctx, ep)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info("simulating",
		log.String("target", ep.String()),
		log.Int("entities", o.entities),
		log.Float64("rate", o.rate))

	interval := time.Duration(float64(time.Second) / o.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	enc := protocol.NewEncoder()
	start := time.Now()
	var lastAnnounce time.Time
	sent := 0

	for {
		select {
		case <-ctx.Done():
			logger.Info("simulation stopped", log.Int("datagrams", sent))
			return nil
		case now := <-ticker.C:
			enc.Reset()
			if now.Sub(lastAnnounce) >= time.Second {
				for i := 0; i < o.entities; i++ {
					enc.SenderDescription(int32(i), fmt.Sprintf("%s%d", o.prefix, i+1))
				}
				enc.TypeDescription(0, protocol.TrackerPoseTypeName)
				lastAnnounce = now
			}

			elapsed := now.Sub(start).Seconds()
			ts := float64(now.UnixNano()) / 1e9
			for i := 0; i < o.entities; i++ {
				for sensor := 0; sensor < o.sensors; sensor++ {
					enc.Pose(0, circlePose(int32(i), int32(sensor), elapsed, ts))
				}
			}

			if _, err := conn.Send(enc.Bytes()); err != nil {
				logger.Warn("send failed", log.Err(err))
				continue
			}
			sent++
		}
	}
}

// circlePose places entity i on a circle of radius 1+i metres, with sensors
// stacked 10 cm apart, yawing once every four seconds.
func circlePose(sender, sensor int32, elapsed, ts float64) domain.PoseSample {
	radius := 1 + float64(sender)
	phase := elapsed * 2 * math.Pi / 4
	yaw := phase / 2
	return domain.PoseSample{
		SenderID: sender,
		Sensor:   sensor,
		Position: [3]float64{
			radius * math.Cos(phase),
			1 + 0.1*float64(sensor),
			radius * math.Sin(phase),
		},
		Rotation:  [4]float64{0, math.Sin(yaw), 0, math.Cos(yaw)},
		Timestamp: ts,
	}
}
