package app

import (
	"errors"
	"sync/atomic"

	"github.com/bft-labs/posefeed/internal/domain"
	"github.com/bft-labs/posefeed/internal/ports"
	"github.com/bft-labs/posefeed/internal/protocol"
	"github.com/bft-labs/posefeed/pkg/log"
)

// DefaultReceiveBufferSize is the largest datagram the loop reads.
const DefaultReceiveBufferSize = 64 * 1024

// Handler receives connection notifications on the consumer's goroutine.
type Handler interface {
	OnConnected()
	OnConnectionLost(reason string)
	OnSampleUpdated(sample domain.PoseSample)
}

// Receiver is one run of the receive loop. It owns its buffer and the
// connection epoch's dictionary for as long as Run executes.
type Receiver struct {
	conn        ports.Conn
	dict        *protocol.Dictionary
	slot        *LatestSlot
	dispatcher  *Dispatcher
	handler     Handler
	filter      *EntityFilter
	metrics     *metrics
	logger      log.Logger
	stop        *atomic.Bool
	trackerType int32
	bufferSize  int
}

// Run reads and decodes datagrams until the stop flag is set or the connection
// is closed, both of which return nil. Any other receive failure is returned.
func (r *Receiver) Run() error {
	size := r.bufferSize
	if size <= 0 {
		size = DefaultReceiveBufferSize
	}
	buf := make([]byte, size)

	for {
		if r.stop.Load() {
			return nil
		}

		n, err := r.conn.Receive(buf)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrReceiveTimeout):
				continue
			case errors.Is(err, domain.ErrClosed), r.stop.Load():
				return nil
			default:
				return err
			}
		}

		r.handleDatagram(buf[:n])
	}
}

func (r *Receiver) handleDatagram(frame []byte) {
	r.metrics.datagram()

	res, _ := protocol.Decode(frame, r.dict, protocol.Options{TrackerType: r.trackerType})

	for _, d := range res.Descriptions {
		r.dict.Apply(d)
	}

	if res.Warnings > 0 {
		r.metrics.decodeError(res.Warnings)
		r.logger.Debug("dropped malformed data",
			log.Int("bytes", len(frame)),
			log.Int("warnings", res.Warnings),
			log.Int("decoded", len(res.Samples)),
			log.Err(res.Err),
		)
	}

	for _, s := range res.Samples {
		if !r.filter.Match(s.EntityID) {
			r.metrics.filteredSample()
			continue
		}
		if !r.slot.Write(s) {
			r.metrics.staleSample()
			r.logger.Debug("stale sample dropped",
				log.String("entity", s.EntityID),
				log.Int32("sensor", s.Sensor),
				log.Float64("timestamp", s.Timestamp),
			)
			continue
		}
		if r.handler != nil {
			r.dispatcher.Enqueue(func() { r.handler.OnSampleUpdated(s) })
		}
		r.metrics.sample()
	}
}
