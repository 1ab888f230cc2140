// Package workers provides task-execution primitives built around a
// per-worker lifecycle state machine.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// A sequential queue drains pushed items one at a time in order.
//	q := workers.NewSequential(func(ctx context.Context, item string, bag *workers.Bag) error {
//	    return process(item)
//	})
//	q.Start()
//	q.Push("first")
//	q.Push("second")
//	q.Join()
//
//	// A pool fans items out across several workers sharing one buffer.
//	pool := workers.NewPool(4, handleOrder, workers.WithKey("orders"))
//	pool.Start()
//
//	// A standalone worker runs an action on its own goroutine.
//	w := workers.NewWorker(tick, worker.Continuous(true), worker.WithInterval(time.Minute))
//	w.Start()
package workers

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jdziat/simple-task-workers/pkg/config"
	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/queue"
	"github.com/jdziat/simple-task-workers/pkg/registry"
	"github.com/jdziat/simple-task-workers/pkg/schedule"
	"github.com/jdziat/simple-task-workers/pkg/security"
	"github.com/jdziat/simple-task-workers/pkg/strategy"
	"github.com/jdziat/simple-task-workers/pkg/worker"
)

// Type aliases for the package API surface
type (
	// State is a worker's lifecycle state.
	State = core.State

	// Lifecycle is the control surface shared by workers and queues.
	Lifecycle = core.Lifecycle

	// Queue is the item-bearing surface shared by all queue variants.
	Queue[T any] = core.Queue[T]

	// Event is the interface for all lifecycle events.
	Event = core.Event

	// Bus is a non-blocking multi-subscriber event bus.
	Bus = core.Bus

	// WorkerStarted is published when a worker loop begins running.
	WorkerStarted = core.WorkerStarted

	// IterationFailed is published when one loop iteration returns an error.
	IterationFailed = core.IterationFailed

	// WorkerCancelled is published when a worker stops on cancellation.
	WorkerCancelled = core.WorkerCancelled

	// WorkerDisposed is published when a worker's resources are released.
	WorkerDisposed = core.WorkerDisposed

	// WorkerFailed is published when a worker loop panics.
	WorkerFailed = core.WorkerFailed

	// ConfigRejected is published when a write-once setter is called late.
	ConfigRejected = core.ConfigRejected

	// CancelError signals expected loop termination.
	CancelError = core.CancelError

	// DisposeError signals disposal-driven loop termination.
	DisposeError = core.DisposeError

	// Bag is a mutable key-value context shared with worker actions.
	Bag = databag.Bag

	// Registry tracks live workers by key.
	Registry = registry.Registry

	// Schedule defines when a periodic worker should run next.
	Schedule = schedule.Schedule

	// Strategy controls how an operation's failures are absorbed.
	Strategy = strategy.Strategy

	// Metrics is the Prometheus instrumentation attached to queues.
	Metrics = metrics.Metrics

	// Worker runs an action on its own goroutine under lifecycle control.
	Worker = worker.Worker

	// Action is the function a worker runs each iteration.
	Action = worker.Action

	// WorkerOption configures a standalone worker.
	WorkerOption = worker.Option

	// Handler processes one queue item.
	Handler[T any] = queue.Handler[T]

	// Option configures a queue variant.
	Option = queue.Option

	// SequentialQueue drains items one at a time in push order.
	SequentialQueue[T any] = queue.Sequential[T]

	// WorkerPool fans items out across several workers sharing one buffer.
	WorkerPool[T any] = queue.Pool[T]

	// AsyncQueue consumes items from a bounded channel, dropping on contention.
	AsyncQueue[T any] = queue.Async[T]

	// Manifest is a queue topology declared in a YAML or JSON file.
	Manifest = config.Manifest

	// QueueDef declares a single queue in a manifest.
	QueueDef = config.QueueDef
)

// Lifecycle states
const (
	Uninitialized = core.Uninitialized
	Running       = core.Running
	Suspended     = core.Suspended
	Cancelled     = core.Cancelled
	Disposed      = core.Disposed
	Failed        = core.Failed
)

// Security limits
const (
	MaxKeyLength          = security.MaxKeyLength
	MaxAttempts           = security.MaxAttempts
	MaxWorkers            = security.MaxWorkers
	MaxCapacity           = security.MaxCapacity
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// Error variables
var (
	ErrCancelled    = core.ErrCancelled
	ErrDisposed     = core.ErrDisposed
	ErrDrained      = core.ErrDrained
	ErrStopItem     = core.ErrStopItem
	ErrUnsupported  = core.ErrUnsupported
	ErrBufferClosed = core.ErrBufferClosed
	ErrInvalidKey   = core.ErrInvalidKey
	ErrKeyTooLong   = core.ErrKeyTooLong
	ErrDuplicateKey = core.ErrDuplicateKey
)

// NewWorker creates a standalone worker for the given action.
func NewWorker(action Action, opts ...WorkerOption) *Worker {
	return worker.New(action, opts...)
}

// NewSequential creates a queue that drains items one at a time in push order.
func NewSequential[T any](handler Handler[T], opts ...Option) *SequentialQueue[T] {
	return queue.NewSequential(handler, opts...)
}

// NewPool creates a queue that fans items out across workerCount workers.
func NewPool[T any](workerCount int, handler Handler[T], opts ...Option) *WorkerPool[T] {
	return queue.NewPool(workerCount, handler, opts...)
}

// NewAsync creates a queue backed by a bounded channel that drops items
// rather than blocking the producer.
func NewAsync[T any](handler Handler[T], opts ...Option) *AsyncQueue[T] {
	return queue.NewAsync(handler, opts...)
}

// NewBag creates an empty data bag.
func NewBag() *Bag {
	return databag.New()
}

// NewRegistry creates an empty worker registry.
func NewRegistry() *Registry {
	return registry.New()
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return core.NewBus()
}

// NewMetrics creates queue instrumentation registered on the default
// Prometheus registerer.
func NewMetrics(namespace, subsystem string) *Metrics {
	return metrics.New(namespace, subsystem)
}

// NewMetricsOn creates queue instrumentation registered on reg.
func NewMetricsOn(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	return metrics.NewOn(reg, namespace, subsystem)
}

// LoadManifest reads and validates a queue manifest from a YAML or JSON file.
func LoadManifest(path string) (*Manifest, error) {
	return config.LoadFile(path)
}

// FailFast returns a strategy that surfaces the first error unchanged.
func FailFast() Strategy {
	return strategy.FailFast{}
}

// BoundedRetry returns a strategy that retries up to maxAttempts times,
// then gives up without surfacing the error.
func BoundedRetry(maxAttempts int) Strategy {
	return strategy.NewBoundedRetry(maxAttempts)
}

// Schedule constructors

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression, panicking if invalid.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// Queue option re-exports

// WithKey sets a queue's identity. Empty means a generated unique key.
func WithKey(key string) Option { return queue.WithKey(key) }

// Capacity sets the async variant's channel capacity.
func Capacity(n int) Option { return queue.Capacity(n) }

// WithBus sets the event bus shared by a queue and its workers.
func WithBus(bus *Bus) Option { return queue.WithBus(bus) }

// WithRegistry makes a queue's workers register themselves on Start.
func WithRegistry(reg *Registry) Option { return queue.WithRegistry(reg) }

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option { return queue.WithLogger(logger) }

// WithMetrics attaches Prometheus instrumentation to a queue.
func WithMetrics(m *Metrics) Option { return queue.WithMetrics(m) }

// WithSchedule makes a queue's workers drain one item per schedule tick.
func WithSchedule(s Schedule) Option { return queue.WithSchedule(s) }

// WithRateLimit caps handler invocations per second across a queue.
func WithRateLimit(perSecond float64, burst int) Option {
	return queue.WithRateLimit(perSecond, burst)
}

// WithJoinGrace sets how long Join waits per worker before cancelling.
func WithJoinGrace(d time.Duration) Option { return queue.WithJoinGrace(d) }

// WorkerIndex reports which pool worker is running, read from its bag.
func WorkerIndex(bag *Bag) int {
	return queue.WorkerIndex(bag)
}
