package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/internal/buffer"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/security"
	"github.com/jdziat/simple-task-workers/pkg/worker"
)

// Pool runs N workers, each with its own data bag carrying its index, all
// draining the same shared FIFO buffer. Admission into the buffer is
// globally FIFO, but delivery order across workers is not guaranteed; only
// the items consumed by the same worker are delivered in FIFO order.
//
// The pool's State is defined as the state of its first worker.
// WorkerStates exposes all of them.
type Pool[T any] struct {
	key     string
	handler Handler[T]
	buf     *buffer.Buffer[entry[T]]
	workers []*worker.Worker
	bus     *core.Bus
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter

	startOnce sync.Once
}

// NewPool creates a pool of workerCount workers with the given item
// handler. The count is fixed at construction and clamped to
// [1, security.MaxWorkers].
func NewPool[T any](workerCount int, handler Handler[T], opts ...Option) *Pool[T] {
	if handler == nil {
		panic("workers: queue handler must not be nil")
	}
	config := newConfig(opts...)
	workerCount = security.ClampWorkerCount(workerCount)

	q := &Pool[T]{
		key:     config.Key,
		handler: handler,
		buf:     buffer.New[entry[T]](),
		workers: make([]*worker.Worker, 0, workerCount),
		bus:     config.Bus,
		logger:  config.Logger,
		metrics: config.Metrics,
		limiter: config.Limiter,
	}

	for i := 0; i < workerCount; i++ {
		bag := databag.New()
		bag.Set(BagWorkerIndex, i)

		workerOpts := []worker.Option{
			worker.WithKey(fmt.Sprintf("%s-%d", config.Key, i)),
			worker.Continuous(true),
			worker.WithBag(bag),
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

		// The closure needs the worker for suspension handling; the
		// variable is assigned before Start can invoke the action.
		var w *worker.Worker
		w = worker.New(func(ctx context.Context, bag *databag.Bag) error {
			return q.drainOne(ctx, bag, w)
		}, workerOpts...)
		q.workers = append(q.workers, w)
	}

	return q
}

func (q *Pool[T]) drainOne(ctx context.Context, bag *databag.Bag, w *worker.Worker) error {
	e, ok := q.buf.Pop(ctx)
	if !ok {
		if ctx.Err() != nil {
			return core.CancelSignal(cancelCause(ctx))
		}
		return core.CancelSignal(core.ErrDrained)
	}
	if e.stop {
		q.logger.Debug("stop sentinel consumed", "key", q.key, "worker", w.Key())
		return core.CancelSignal(core.ErrStopItem)
	}
	return runHandler(ctx, q.handler, e.item, bag, w, q.limiter, q.metrics)
}

// Key returns the pool's identity.
func (q *Pool[T]) Key() string { return q.key }

// State returns the state of the pool's first worker.
func (q *Pool[T]) State() core.State { return q.workers[0].State() }

// WorkerStates returns the state of every worker, by index.
func (q *Pool[T]) WorkerStates() []core.State {
	states := make([]core.State, len(q.workers))
	for i, w := range q.workers {
		states[i] = w.State()
	}
	return states
}

// Size returns the fixed worker count.
func (q *Pool[T]) Size() int { return len(q.workers) }

// Count returns the number of buffered items.
func (q *Pool[T]) Count() int { return q.buf.Len() }

// Events returns a subscription to the pool's shared event bus.
func (q *Pool[T]) Events() <-chan core.Event { return q.bus.Subscribe() }

// Bus returns the pool's event bus.
func (q *Pool[T]) Bus() *core.Bus { return q.bus }

// Start spins up every worker. Repeated calls are no-ops.
func (q *Pool[T]) Start() error {
	for _, w := range q.workers {
		_ = w.Start()
	}
	q.startOnce.Do(func() {
		q.logger.Info("worker pool started", "key", q.key, "workers", len(q.workers))
		if q.metrics != nil {
			for _, w := range q.workers {
				q.metrics.WorkerUp()
				go func(w *worker.Worker) {
					<-w.Done()
					q.metrics.WorkerDown()
				}(w)
			}
		}
	})
	return nil
}

// Push enqueues an item if the pool is accepting work (gated on the first
// worker's state), reporting whether the item was admitted.
func (q *Pool[T]) Push(item T) bool {
	if q.State() != core.Running {
		q.metrics.Dropped()
		return false
	}
	return q.push(entry[T]{item: item})
}

// ForcePush enqueues regardless of worker state. It still fails once the
// buffer is closed for writes.
func (q *Pool[T]) ForcePush(item T) bool {
	return q.push(entry[T]{item: item})
}

// PushSentinel enqueues the in-band stop marker. The single worker that
// consumes it stops; the rest keep draining.
func (q *Pool[T]) PushSentinel() bool {
	return q.buf.Push(entry[T]{stop: true}) == nil
}

func (q *Pool[T]) push(e entry[T]) bool {
	if err := q.buf.Push(e); err != nil {
		q.metrics.Dropped()
		return false
	}
	q.metrics.Submitted()
	return true
}

// Cancel closes the buffer for writes and cancels every worker.
func (q *Pool[T]) Cancel() error {
	q.buf.CompleteAdding()
	for _, w := range q.workers {
		_ = w.Cancel()
	}
	return nil
}

// Suspend pauses every worker before its next item.
func (q *Pool[T]) Suspend() error {
	for _, w := range q.workers {
		_ = w.Suspend()
	}
	return nil
}

// Resume continues every worker.
func (q *Pool[T]) Resume() error {
	for _, w := range q.workers {
		_ = w.Resume()
	}
	return nil
}

// Wait waits on every worker concurrently, up to timeout each, reporting
// whether all of them exited.
func (q *Pool[T]) Wait(timeout time.Duration) bool {
	results := make([]bool, len(q.workers))
	var wg sync.WaitGroup
	for i, w := range q.workers {
		wg.Add(1)
		go func(i int, w *worker.Worker) {
			defer wg.Done()
			results[i] = w.Wait(timeout)
		}(i, w)
	}
	wg.Wait()

	for _, exited := range results {
		if !exited {
			return false
		}
	}
	return true
}

// Join closes the buffer for writes, lets the workers drain the remaining
// items, and joins each of them.
func (q *Pool[T]) Join() error {
	q.buf.CompleteAdding()
	for _, w := range q.workers {
		_ = w.Join()
	}
	return nil
}

// Dispose closes the buffer for writes and disposes every worker.
func (q *Pool[T]) Dispose() error {
	q.buf.CompleteAdding()
	for _, w := range q.workers {
		_ = w.Dispose()
	}
	q.logger.Info("worker pool disposed", "key", q.key)
	return nil
}
