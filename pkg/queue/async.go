package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/security"
)

// Consumption task phases for the async variant. State is derived from the
// task's lifecycle rather than from an explicit worker state field.
const (
	phaseCreated int32 = iota
	phaseRunning
	phaseFaulted
	phaseCancelled
	phaseCompleted
)

// Async is the non-blocking-producer variant: it owns no dedicated worker.
// Start launches one consumption goroutine on the shared Go scheduler;
// producers write into a bounded channel with a non-blocking send and drop
// silently on contention. There is no back-pressure and, beyond
// single-reader sequential processing, no ordering guarantee under write
// failure. Suspend and Resume are not supported.
//
// Cancel, Join, Interrupt, and Dispose are all equivalent: they close the
// channel for writes and release the consumption task, which drains
// already-buffered entries before exiting.
type Async[T any] struct {
	key     string
	handler Handler[T]
	bag     *databag.Bag
	bus     *core.Bus
	logger  *slog.Logger
	metrics *metrics.Metrics

	ch     chan entry[T]
	mu     sync.RWMutex // guards closed vs. concurrent sends
	closed bool

	phase     atomic.Int32
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	doneOnce  sync.Once
}

// NewAsync creates an async queue with the given item handler. The channel
// capacity defaults to DefaultAsyncCapacity and is set with Capacity.
func NewAsync[T any](handler Handler[T], opts ...Option) *Async[T] {
	if handler == nil {
		panic("workers: queue handler must not be nil")
	}
	config := newConfig(opts...)

	return &Async[T]{
		key:     config.Key,
		handler: handler,
		bag:     databag.New(),
		bus:     config.Bus,
		logger:  config.Logger,
		metrics: config.Metrics,
		ch:      make(chan entry[T], security.ClampCapacity(config.Capacity)),
		done:    make(chan struct{}),
	}
}

// Key returns the queue's identity.
func (q *Async[T]) Key() string { return q.key }

// State derives the lifecycle state from the consumption task's phase.
func (q *Async[T]) State() core.State {
	switch q.phase.Load() {
	case phaseRunning:
		return core.Running
	case phaseFaulted:
		return core.Failed
	case phaseCancelled:
		return core.Cancelled
	case phaseCompleted:
		return core.Disposed
	default:
		return core.Uninitialized
	}
}

// Count returns the number of buffered entries.
func (q *Async[T]) Count() int { return len(q.ch) }

// Events returns a subscription to the queue's event bus.
func (q *Async[T]) Events() <-chan core.Event { return q.bus.Subscribe() }

// Bus returns the queue's event bus.
func (q *Async[T]) Bus() *core.Bus { return q.bus }

// Start schedules the consumption task. Repeated calls are no-ops.
func (q *Async[T]) Start() error {
	q.startOnce.Do(func() {
		if !q.phase.CompareAndSwap(phaseCreated, phaseRunning) {
			// Closed before ever starting; nothing to schedule.
			return
		}
		q.logger.Info("async queue started", "key", q.key)
		go q.consume()
	})
	return nil
}

func (q *Async[T]) consume() {
	q.metrics.WorkerUp()
	defer q.metrics.WorkerDown()
	defer q.finish()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workers: async consumer panic: %s", security.SanitizeErrorMessage(fmt.Sprint(r)))
			q.phase.Store(phaseFaulted)
			q.bus.Publish(&core.WorkerFailed{Key: q.key, Error: err, Timestamp: time.Now()})
			q.logger.Error("async consumer failed", "key", q.key, "error", err)
		}
	}()

	q.bus.Publish(&core.WorkerStarted{Key: q.key, Timestamp: time.Now()})

	// Ranging drains already-buffered entries after the channel closes.
	for e := range q.ch {
		if e.stop {
			q.logger.Debug("stop sentinel consumed", "key", q.key)
			break
		}

		start := time.Now()
		err := q.invoke(e.item)
		if err != nil {
			q.metrics.Failed(time.Since(start).Seconds())
			q.bus.Publish(&core.IterationFailed{Key: q.key, Error: err, Timestamp: time.Now()})
			q.logger.Warn("iteration failed", "key", q.key, "error", err)
			continue
		}
		q.metrics.Completed(time.Since(start).Seconds())
	}

	q.phase.CompareAndSwap(phaseRunning, phaseCompleted)
	q.bus.Publish(&core.WorkerDisposed{Key: q.key, Timestamp: time.Now()})
	q.logger.Info("async queue completed", "key", q.key)
}

// invoke runs the handler for one item, converting a panic into an error.
func (q *Async[T]) invoke(item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workers: handler panic: %s", security.SanitizeErrorMessage(fmt.Sprint(r)))
		}
	}()
	return q.handler(context.Background(), item, q.bag)
}

// Push attempts a non-blocking write if the consumption task is running,
// reporting whether the entry was admitted. A full channel drops silently.
func (q *Async[T]) Push(item T) bool {
	if q.State() != core.Running {
		q.metrics.Dropped()
		return false
	}
	return q.send(entry[T]{item: item})
}

// ForcePush attempts a non-blocking write regardless of task phase. It
// still fails once the channel is closed for writes.
func (q *Async[T]) ForcePush(item T) bool {
	return q.send(entry[T]{item: item})
}

// PushSentinel enqueues the in-band stop marker that terminates consumption.
func (q *Async[T]) PushSentinel() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- entry[T]{stop: true}:
		return true
	default:
		return false
	}
}

func (q *Async[T]) send(e entry[T]) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.metrics.Dropped()
		return false
	}
	select {
	case q.ch <- e:
		q.metrics.Submitted()
		return true
	default:
		// Contended: drop silently rather than block the producer.
		q.metrics.Dropped()
		return false
	}
}

// Cancel closes the channel for writes and releases the consumption task.
func (q *Async[T]) Cancel() error { return q.shutdown() }

// Join is equivalent to Cancel for the async variant.
func (q *Async[T]) Join() error { return q.shutdown() }

// Interrupt is equivalent to Cancel for the async variant.
func (q *Async[T]) Interrupt() error { return q.shutdown() }

// Dispose is equivalent to Cancel for the async variant.
func (q *Async[T]) Dispose() error { return q.shutdown() }

func (q *Async[T]) shutdown() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()

		if q.phase.CompareAndSwap(phaseCreated, phaseCancelled) {
			// Never started: nothing will drain, release immediately.
			q.finish()
		}
		q.logger.Info("async queue closed for writes", "key", q.key)
	})
	return nil
}

// Suspend is not supported by the async variant.
func (q *Async[T]) Suspend() error { return core.ErrUnsupported }

// Resume is not supported by the async variant.
func (q *Async[T]) Resume() error { return core.ErrUnsupported }

// Wait blocks until the consumption task has released or the timeout
// elapses, reporting whether it released.
func (q *Async[T]) Wait(timeout time.Duration) bool {
	select {
	case <-q.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (q *Async[T]) finish() {
	q.doneOnce.Do(func() { close(q.done) })
}
