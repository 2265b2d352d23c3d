// Package posefeed receives motion-capture pose streams over UDP.
//
// Example usage:
//
//	client, err := posefeed.New(posefeed.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Dispose()
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	for range ticker.C {
//	    client.DrainOnce()
//	    pose, ok := client.Latest("rigid1")
//	    ...
//	}
//
// The full API lives in github.com/bft-labs/posefeed/pkg/posefeed.
package posefeed

import (
	"github.com/bft-labs/posefeed/pkg/posefeed"
)

// Client receives pose streams and exposes the latest pose of every entity.
type Client = posefeed.Client

// Config holds the configuration of a Client.
type Config = posefeed.Config

// PoseSample is one decoded pose.
type PoseSample = posefeed.PoseSample

// Option configures optional behavior of a Client.
type Option = posefeed.Option

// EventHandler receives client notifications on the draining goroutine.
type EventHandler = posefeed.EventHandler

// New creates a client. See posefeed.New.
func New(cfg Config, opts ...Option) (*Client, error) {
	return posefeed.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return posefeed.DefaultConfig()
}

// DefaultPort is the conventional port of a pose server.
const DefaultPort = posefeed.DefaultPort
