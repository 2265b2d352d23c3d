package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bft-labs/posefeed/internal/app"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Stats is a point-in-time copy of the receive counters.
type Stats struct {
	Datagrams    uint64
	Samples      uint64
	DecodeErrors uint64
	Stale        uint64
	Filtered     uint64

	// Runs counts receive loop starts; Faults counts runs that ended on a
	// transport error.
	Runs   uint64
	Faults uint64
}

// metrics records receive counters both in-process and on the global OTel
// meter (no-op unless a provider is installed).
type metrics struct {
	datagrams    atomic.Uint64
	samples      atomic.Uint64
	decodeErrors atomic.Uint64
	stale        atomic.Uint64
	filtered     atomic.Uint64
	runs         atomic.Uint64
	faults       atomic.Uint64

	datagramsCounter metric.Int64Counter
	samplesCounter   metric.Int64Counter
	errorsCounter    metric.Int64Counter
	staleCounter     metric.Int64Counter
	filteredCounter  metric.Int64Counter
	runsCounter      metric.Int64Counter
	faultsCounter    metric.Int64Counter
	pendingGauge     metric.Int64ObservableGauge
	registration     metric.Registration
}

func newMetrics(pending func() int) (*metrics, error) {
	m := &metrics{}
	mt := meter()

	var err error
	counter := func(name, desc string) metric.Int64Counter {
		if err != nil {
			return nil
		}
		var c metric.Int64Counter
		c, err = mt.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			err = fmt.Errorf("creating %s counter: %w", name, err)
		}
		return c
	}

	m.datagramsCounter = counter("posefeed.datagrams.received", "Datagrams read from the socket")
	m.samplesCounter = counter("posefeed.samples.decoded", "Pose samples published to the latest-state slot")
	m.errorsCounter = counter("posefeed.decode.errors", "Malformed messages and invalid poses")
	m.staleCounter = counter("posefeed.samples.stale", "Samples older than the stored sample")
	m.filteredCounter = counter("posefeed.samples.filtered", "Samples rejected by the entity filter")
	m.runsCounter = counter("posefeed.loop.runs", "Receive loop starts")
	m.faultsCounter = counter("posefeed.loop.faults", "Receive loop runs ended by a transport error")
	if err != nil {
		return nil, err
	}

	m.pendingGauge, err = mt.Int64ObservableGauge(
		"posefeed.dispatch.pending",
		metric.WithDescription("Notifications waiting for the next drain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pending gauge: %w", err)
	}

	if pending != nil {
		m.registration, err = mt.RegisterCallback(
			func(ctx context.Context, o metric.Observer) error {
				o.ObserveInt64(m.pendingGauge, int64(pending()))
				return nil
			},
			m.pendingGauge,
		)
		if err != nil {
			return nil, fmt.Errorf("registering pending callback: %w", err)
		}
	}

	return m, nil
}

func (m *metrics) datagram() {
	m.datagrams.Add(1)
	m.datagramsCounter.Add(context.Background(), 1)
}

func (m *metrics) sample() {
	m.samples.Add(1)
	m.samplesCounter.Add(context.Background(), 1)
}

func (m *metrics) decodeError(n int) {
	if n <= 0 {
		return
	}
	m.decodeErrors.Add(uint64(n))
	m.errorsCounter.Add(context.Background(), int64(n))
}

func (m *metrics) staleSample() {
	m.stale.Add(1)
	m.staleCounter.Add(context.Background(), 1)
}

func (m *metrics) filteredSample() {
	m.filtered.Add(1)
	m.filteredCounter.Add(context.Background(), 1)
}

// OnStateChange counts loop starts and faulted exits. It is the lifecycle's
// EventEmitter and must not take manager locks.
func (m *metrics) OnStateChange(previous, current State, reason string) {
	switch {
	case current == StateRunning:
		m.runs.Add(1)
		m.runsCounter.Add(context.Background(), 1)
	case current == StateStopped && previous == StateRunning && reason == loopFaultReason:
		m.faults.Add(1)
		m.faultsCounter.Add(context.Background(), 1)
	}
}

func (m *metrics) snapshot() Stats {
	return Stats{
		Datagrams:    m.datagrams.Load(),
		Samples:      m.samples.Load(),
		DecodeErrors: m.decodeErrors.Load(),
		Stale:        m.stale.Load(),
		Filtered:     m.filtered.Load(),
		Runs:         m.runs.Load(),
		Faults:       m.faults.Load(),
	}
}

func (m *metrics) close() error {
	if m.registration == nil {
		return nil
	}
	err := m.registration.Unregister()
	m.registration = nil
	return err
}
