package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/internal/buffer"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/worker"
)

// Sequential wraps exactly one continuously-running worker draining an
// unbounded FIFO buffer. Items pushed while Running are delivered to the
// handler in exactly the order pushed; no two items are delivered
// concurrently.
type Sequential[T any] struct {
	key     string
	handler Handler[T]
	buf     *buffer.Buffer[entry[T]]
	worker  *worker.Worker
	bus     *core.Bus
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter

	startOnce sync.Once
}

// NewSequential creates a sequential queue with the given item handler.
func NewSequential[T any](handler Handler[T], opts ...Option) *Sequential[T] {
	if handler == nil {
		panic("workers: queue handler must not be nil")
	}
	config := newConfig(opts...)

	q := &Sequential[T]{
		key:     config.Key,
		handler: handler,
		buf:     buffer.New[entry[T]](),
		bus:     config.Bus,
		logger:  config.Logger,
		metrics: config.Metrics,
		limiter: config.Limiter,
	}

	workerOpts := []worker.Option{
		worker.WithKey(config.Key),
		worker.Continuous(true),
		worker.WithBus(config.Bus),
		worker.WithLogger(config.Logger),
	}
	if config.Registry != nil {
		workerOpts = append(workerOpts, worker.WithRegistry(config.Registry))
	}
	if config.Schedule != nil {
		workerOpts = append(workerOpts, worker.WithSchedule(config.Schedule))
	}
	if config.JoinGrace > 0 {
		workerOpts = append(workerOpts, worker.WithJoinGrace(config.JoinGrace))
	}
	q.worker = worker.New(q.drainOne, workerOpts...)

	return q
}

// drainOne is the worker action: pop one entry and deliver it.
func (q *Sequential[T]) drainOne(ctx context.Context, bag *databag.Bag) error {
	e, ok := q.buf.Pop(ctx)
	if !ok {
		if ctx.Err() != nil {
			return core.CancelSignal(cancelCause(ctx))
		}
		return core.CancelSignal(core.ErrDrained)
	}
	if e.stop {
		q.logger.Debug("stop sentinel consumed", "key", q.key)
		return core.CancelSignal(core.ErrStopItem)
	}
	return runHandler(ctx, q.handler, e.item, bag, q.worker, q.limiter, q.metrics)
}

// Key returns the queue's identity.
func (q *Sequential[T]) Key() string { return q.key }

// State returns the state of the queue's worker.
func (q *Sequential[T]) State() core.State { return q.worker.State() }

// Count returns the number of buffered items.
func (q *Sequential[T]) Count() int { return q.buf.Len() }

// Events returns a subscription to the queue's event bus.
func (q *Sequential[T]) Events() <-chan core.Event { return q.bus.Subscribe() }

// Bus returns the queue's event bus.
func (q *Sequential[T]) Bus() *core.Bus { return q.bus }

// Start spins up the draining worker. Repeated calls are no-ops.
func (q *Sequential[T]) Start() error {
	err := q.worker.Start()
	q.startOnce.Do(func() {
		q.logger.Info("sequential queue started", "key", q.key)
		if q.metrics != nil {
			q.metrics.WorkerUp()
			go func() {
				<-q.worker.Done()
				q.metrics.WorkerDown()
			}()
		}
	})
	return err
}

// Push enqueues an item if the worker is currently Running, reporting
// whether the item was admitted. Push never blocks.
func (q *Sequential[T]) Push(item T) bool {
	if q.worker.State() != core.Running {
		q.metrics.Dropped()
		return false
	}
	return q.push(entry[T]{item: item})
}

// ForcePush enqueues regardless of worker state; used for last items during
// shutdown races. It still fails once the buffer is closed for writes.
func (q *Sequential[T]) ForcePush(item T) bool {
	return q.push(entry[T]{item: item})
}

// PushSentinel enqueues the in-band stop marker. Items behind it are not
// delivered.
func (q *Sequential[T]) PushSentinel() bool {
	return q.buf.Push(entry[T]{stop: true}) == nil
}

func (q *Sequential[T]) push(e entry[T]) bool {
	if err := q.buf.Push(e); err != nil {
		q.metrics.Dropped()
		return false
	}
	q.metrics.Submitted()
	return true
}

// Cancel closes the buffer for writes and cancels the worker.
func (q *Sequential[T]) Cancel() error {
	q.buf.CompleteAdding()
	return q.worker.Cancel()
}

// Suspend pauses consumption before the next item. Queued items are kept.
func (q *Sequential[T]) Suspend() error { return q.worker.Suspend() }

// Resume continues consumption.
func (q *Sequential[T]) Resume() error { return q.worker.Resume() }

// Wait blocks until the worker exits or the timeout elapses.
func (q *Sequential[T]) Wait(timeout time.Duration) bool { return q.worker.Wait(timeout) }

// Join closes the buffer for writes, lets the worker drain the remaining
// items, and joins it.
func (q *Sequential[T]) Join() error {
	q.buf.CompleteAdding()
	return q.worker.Join()
}

// Dispose closes the buffer for writes and disposes the worker.
func (q *Sequential[T]) Dispose() error {
	q.buf.CompleteAdding()
	err := q.worker.Dispose()
	q.logger.Info("sequential queue disposed", "key", q.key)
	return err
}
