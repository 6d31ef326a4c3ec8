package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tempoedu/skillswap/internal/core/domain"
	"github.com/tempoedu/skillswap/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	storeTimeout   = 5 * time.Second
)

// NotificationStore persists a single notification.
type NotificationStore interface {
	Store(ctx context.Context, n domain.Notification) error
}

// Dispatcher delivers notifications asynchronously through a fixed set of
// workers, sharded by recipient so each user's notifications keep their order.
// It implements ports.NotificationSink: Notify never blocks and never fails.
type Dispatcher struct {
	workers []chan domain.Notification
	store   NotificationStore
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used; buffer <= 0 means channelBuffer.
func NewDispatcher(numWorkers, buffer int, store NotificationStore, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = channelBuffer
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, buffer)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// delivers what is already queued on its shard and returns.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify queues n for delivery. When the recipient's shard is full the
// notification is dropped and logged.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	idx := d.shardIndex(n.RecipientID)
	select {
	case d.workers[idx] <- n:
		metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("recipient_id", n.RecipientID).
			Str("kind", string(n.Kind)).
			Int("worker_id", idx).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipientID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			d.drain(ctx, id, ch)
			return
		case n := <-ch:
			d.deliver(ctx, id, n)
		}
	}
}

// drain delivers whatever is still queued on ch without waiting for more.
func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.Notification) {
	drained := 0
	for {
		select {
		case n := <-ch:
			d.deliver(ctx, id, n)
			drained++
		default:
			if drained > 0 {
				d.log.Info().Int("worker_id", id).Int("count", drained).Msg("drained notification queue")
			}
			return
		}
	}
}

// deliver stores n under its own deadline, detached from the worker's
// lifetime so a shutdown does not cancel in-flight writes.
func (d *Dispatcher) deliver(ctx context.Context, id int, n domain.Notification) {
	metrics.NotificationQueueDepth.WithLabelValues(strconv.Itoa(id)).Dec()

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if err := d.store.Store(storeCtx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("recipient_id", n.RecipientID).
			Str("kind", string(n.Kind)).
			Int("worker_id", id).
			Msg("notification delivery failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("stored").Inc()
}
