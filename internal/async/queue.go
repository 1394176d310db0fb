package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/bills-tracker/internal/events"
)

// ErrQueueClosed is returned by Publish after Shutdown.
var ErrQueueClosed = errors.New("publish queue is shutting down")

// ErrQueueFull is returned when the buffer is full; the event is dropped.
var ErrQueueFull = errors.New("publish queue is full")

// PublishQueue moves event delivery off the request path. It implements events.Publisher.
type PublishQueue struct {
	target  events.Publisher
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan events.Event
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*PublishQueue)

func WithWorkers(n int) Option {
	return func(q *PublishQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *PublishQueue) {
		if n > 0 {
			q.ch = make(chan events.Event, n)
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(q *PublishQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewPublishQueue(target events.Publisher, logger *slog.Logger, opts ...Option) *PublishQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &PublishQueue{
		target:  target,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Second,
		ch:      make(chan events.Event, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *PublishQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("events.worker.started", "worker_id", workerID)

				for e := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.target.Publish(ctx, e)
					cancel()

					if err != nil {
						q.logger.Error("events.publish.failed", "worker_id", workerID, "event_id", e.ID, "type", e.Type, "error", err)
					} else {
						q.logger.Debug("events.publish.ok", "worker_id", workerID, "event_id", e.ID, "type", e.Type)
					}
				}

				q.logger.Debug("events.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Publish enqueues e without blocking.
func (q *PublishQueue) Publish(_ context.Context, e events.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("events.enqueue.closed", "event_id", e.ID, "type", e.Type)
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		q.logger.Warn("events.enqueue.dropped", "event_id", e.ID, "type", e.Type, "reason", "queue full")
		return ErrQueueFull
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered or ctx to end.
func (q *PublishQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("events.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("events.queue.drained")
	}
}

// Close drains the queue and closes the underlying publisher.
func (q *PublishQueue) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	q.Shutdown(ctx)
	return q.target.Close()
}
