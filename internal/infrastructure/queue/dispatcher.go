package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aidattendance/portal/internal/api/metrics"
	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deliverTimeout = 15 * time.Second
)

var ErrQueueFull = errors.New("notification queue full")

// Dispatcher delivers notifications off the request path. Messages are routed
// to a fixed set of workers by consistent hashing on the recipient, so one
// recipient's messages arrive in order.
type Dispatcher struct {
	workers []chan domain.Notification
	sink    ports.Notifier
	log     zerolog.Logger
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers
// delivering through sink. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.Notification, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Notification, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Notify queues msg for delivery. It never blocks; a full worker channel
// yields ErrQueueFull.
func (d *Dispatcher) Notify(_ context.Context, msg domain.Notification) error {
	idx := d.shardIndex(msg.Recipient)
	select {
	case d.workers[idx] <- msg:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Notification) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.NotificationsQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, msg)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, msg domain.Notification) {
	ctx, cancel := context.WithTimeout(ctx, deliverTimeout)
	defer cancel()

	start := time.Now()
	err := d.sink.Notify(ctx, msg)
	result := "sent"
	if err != nil {
		result = "error"
		d.log.Error().Err(err).
			Str("channel", string(msg.Channel)).
			Str("recipient", msg.Recipient).
			Int("worker_id", id).
			Msg("notification delivery failed")
	}
	metrics.NotificationDeliveryDuration.WithLabelValues(string(msg.Channel), result).Observe(time.Since(start).Seconds())
}
