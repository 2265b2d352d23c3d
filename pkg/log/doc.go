// Package log provides the logging abstraction used by posefeed components.
//
// Components never import a concrete logging library. They accept a [Logger]
// and emit structured key/value [Field]s; the zerolog adapter and the no-op
// logger are provided here.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	client, err := posefeed.New(cfg, posefeed.WithLogger(logger))
//
// The receive loop logs per-datagram decode problems at debug level only, so a
// noisy network does not flood the output of an info-level logger.
package log
