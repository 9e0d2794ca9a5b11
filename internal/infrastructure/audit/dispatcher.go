package audit

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/anvaya/identity-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sink persists a single audit event.
type Sink interface {
	Write(ctx context.Context, event ports.AuditEvent) error
}

// Dispatcher fans audit events out to a fixed set of workers, sharded
// by subject so events for one identity stay ordered. Record never
// blocks the request path: when a worker channel is full the event is
// dropped and counted in the log.
type Dispatcher struct {
	workers []chan ports.AuditEvent
	sink    Sink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.AuditEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record implements ports.AuditRecorder.
func (d *Dispatcher) Record(event ports.AuditEvent) {
	ch := d.workers[d.shardIndex(subject(event))]
	select {
	case ch <- event:
	default:
		d.log.Warn().
			Str("action", event.Action).
			Msg("audit event dropped: worker channel full")
	}
}

// subject picks the sharding key: the identity id when known, otherwise
// the email (e.g. failed logins for unknown accounts).
func subject(event ports.AuditEvent) string {
	if event.IdentityID != "" {
		return event.IdentityID
	}
	return event.Email
}

// shardIndex maps a subject deterministically to a worker index.
func (d *Dispatcher) shardIndex(subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.AuditEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Write(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("action", event.Action).
					Int("worker_id", id).
					Msg("audit event write failed")
			}
		}
	}
}
