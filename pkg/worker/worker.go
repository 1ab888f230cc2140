package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/registry"
	"github.com/jdziat/simple-task-workers/pkg/schedule"
	"github.com/jdziat/simple-task-workers/pkg/security"
	"github.com/jdziat/simple-task-workers/pkg/strategy"
)

// Action is the user-supplied callback a worker invokes each iteration.
// ctx is the worker's cancellation context: ctx.Done() is the cancellation
// flag, context.Cause(ctx) the cancellation cause. The bag is the worker's
// data context, supplied externally and merely referenced.
type Action func(ctx context.Context, bag *databag.Bag) error

// Worker owns one background run goroutine and the lifecycle state machine
// coordinating Start/Suspend/Resume/Cancel/Join calls from concurrent
// goroutines. The state field is the only datum mutated by both external
// callers and the run loop; every mutation is an atomic CAS or store, and
// no lock is held during action execution.
type Worker struct {
	key        string
	action     Action
	continuous bool
	sched      schedule.Schedule
	bag        *databag.Bag

	state   atomic.Int32 // core.State
	started atomic.Bool
	ctx     context.Context
	cancel  context.CancelCauseFunc
	freed   atomic.Bool // cancellation resource released by Dispose

	wake chan struct{} // capacity 1; pokes the loop out of suspension or a timed sleep
	done chan struct{} // closed when the run goroutine exits

	reg       *registry.Registry
	bus       *core.Bus
	logger    *slog.Logger
	teardown  strategy.Strategy
	joinGrace time.Duration
}

// New creates a worker in the Uninitialized state. The action is required.
// If no key is configured, a unique one is generated. A caller-supplied key
// must satisfy security.ValidateKey; an invalid key panics, since it is a
// programming error at construction time.
func New(action Action, opts ...Option) *Worker {
	if action == nil {
		panic("workers: worker action must not be nil")
	}

	config := Config{
		JoinGrace: DefaultJoinGrace,
	}
	for _, opt := range opts {
		opt.ApplyWorker(&config)
	}

	if config.Key == "" {
		config.Key = "worker-" + uuid.New().String()
	} else if err := security.ValidateKey(config.Key); err != nil {
		panic(fmt.Sprintf("workers: invalid worker key %q: %v", config.Key, err))
	}
	if config.Bag == nil {
		config.Bag = databag.New()
	}
	if config.Bus == nil {
		config.Bus = core.NewBus()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Teardown == nil {
		config.Teardown = strategy.DefaultTeardown()
	}
	if config.JoinGrace <= 0 {
		config.JoinGrace = DefaultJoinGrace
	}

	ctx, cancel := context.WithCancelCause(context.Background())

	return &Worker{
		key:        config.Key,
		action:     action,
		continuous: config.Continuous,
		sched:      config.Schedule,
		bag:        config.Bag,
		ctx:        ctx,
		cancel:     cancel,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		reg:        config.Registry,
		bus:        config.Bus,
		logger:     config.Logger,
		teardown:   config.Teardown,
		joinGrace:  config.JoinGrace,
	}
}

// Key returns the worker's identity.
func (w *Worker) Key() string { return w.key }

// State returns the current lifecycle state.
func (w *Worker) State() core.State {
	return core.State(w.state.Load())
}

// Bag returns the worker's data context.
func (w *Worker) Bag() *databag.Bag { return w.bag }

// Continuous reports whether the worker loops until cancelled.
func (w *Worker) Continuous() bool { return w.continuous }

// Events returns a subscription to the worker's event bus.
// The caller must call Unsubscribe on the bus when done.
func (w *Worker) Events() <-chan core.Event { return w.bus.Subscribe() }

// Bus returns the worker's event bus.
func (w *Worker) Bus() *core.Bus { return w.bus }

// Done returns a channel closed when the run goroutine has exited.
// It never closes for a worker that was never started.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Start transitions Uninitialized -> Running, registers the worker, and
// spawns the run goroutine. Any other prior state makes Start a silent no-op.
func (w *Worker) Start() error {
	if !w.state.CompareAndSwap(int32(core.Uninitialized), int32(core.Running)) {
		return nil
	}
	w.started.Store(true)

	if w.reg != nil {
		if err := w.reg.Register(w); err != nil {
			w.logger.Warn("worker not registered", "key", w.key, "error", err)
		}
	}

	go w.run()
	return nil
}

// Cancel raises the worker's cancellation flag without blocking. Safe from
// any state, including before Start. The run loop observes the flag at the
// top of each iteration and after waking from suspension.
func (w *Worker) Cancel() error {
	w.cancel(core.ErrCancelled)
	w.poke()
	return nil
}

// Suspend transitions Running -> Suspended; no-op in any other state.
// An iteration already in flight completes; suspension takes effect before
// the next one starts.
func (w *Worker) Suspend() error {
	w.state.CompareAndSwap(int32(core.Running), int32(core.Suspended))
	return nil
}

// Resume transitions Suspended -> Running and wakes the run goroutine;
// no-op in any other state.
func (w *Worker) Resume() error {
	if w.state.CompareAndSwap(int32(core.Suspended), int32(core.Running)) {
		w.poke()
	}
	return nil
}

// Wait blocks until the run goroutine exits or the timeout elapses,
// reporting whether it exited. Wait does not change worker state.
func (w *Worker) Wait(timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Join wakes the run goroutine if suspended, deregisters the worker, waits
// up to the join grace period for the goroutine to exit, then cancels
// unconditionally so termination is guaranteed even if the grace expired.
// Safe to call multiple times.
func (w *Worker) Join() error {
	w.poke()
	w.unregister()

	if w.started.Load() {
		select {
		case <-w.done:
		case <-time.After(w.joinGrace):
			w.logger.Warn("worker did not exit within join grace", "key", w.key, "grace", w.joinGrace)
		}
	}

	err := w.Cancel()

	// A loop that already exited can no longer observe the flag; finalize
	// the state here so Join leaves the worker observably stopped.
	select {
	case <-w.done:
		w.transition(core.Cancelled)
	default:
	}
	return err
}

// Dispose joins the worker, releases the cancellation resource through the
// teardown strategy (release failures are swallowed, never propagated), and
// forces the terminal Disposed state regardless of the prior one.
func (w *Worker) Dispose() error {
	_ = w.Join()

	_ = w.teardown.Execute(func() error {
		return w.release()
	})

	w.state.Store(int32(core.Disposed))
	return nil
}

// release frees the cancellation resource exactly once.
func (w *Worker) release() error {
	if !w.freed.CompareAndSwap(false, true) {
		return nil
	}
	w.cancel(core.ErrDisposed)
	w.bus.Publish(&core.WorkerDisposed{Key: w.key, Timestamp: time.Now()})
	return nil
}

// AwaitRunning blocks while the worker is Suspended, returning once it is
// Running again. It returns false if the worker was cancelled or the given
// context finished first. Queue variants use it to hold an already-popped
// item until resume.
func (w *Worker) AwaitRunning(ctx context.Context) bool {
	for w.State() == core.Suspended {
		select {
		case <-w.wake:
		case <-ctx.Done():
			return false
		case <-w.ctx.Done():
			return false
		}
	}
	return w.State() == core.Running
}

// --- Write-once configuration setters ---

// SetContinuous sets the repeat flag. Write-once: rejected after Start.
func (w *Worker) SetContinuous(continuous bool) {
	if !w.configurable("continuous") {
		return
	}
	w.continuous = continuous
}

// SetSchedule makes the worker periodic. Write-once: rejected after Start.
func (w *Worker) SetSchedule(s schedule.Schedule) {
	if !w.configurable("schedule") {
		return
	}
	w.sched = s
}

// SetInterval makes the worker periodic with a fixed delay between
// iterations. Write-once: rejected after Start.
func (w *Worker) SetInterval(d time.Duration) {
	if !w.configurable("interval") {
		return
	}
	w.sched = schedule.Every(d)
}

// SetBag replaces the data context. Write-once: rejected after Start.
func (w *Worker) SetBag(bag *databag.Bag) {
	if !w.configurable("bag") {
		return
	}
	if bag == nil {
		bag = databag.New()
	}
	w.bag = bag
}

// configurable reports whether the worker still accepts configuration.
// A rejected write publishes a ConfigRejected event rather than returning
// an error, since the running loop is unaffected either way.
func (w *Worker) configurable(field string) bool {
	s := w.State()
	if s == core.Uninitialized {
		return true
	}

	cfgErr := &core.ConfigError{Key: w.key, Field: field, State: s}
	w.bus.Publish(&core.ConfigRejected{Key: w.key, Field: field, Error: cfgErr, Timestamp: time.Now()})
	w.logger.Warn("configuration rejected", "key", w.key, "field", field, "state", s.String())
	return false
}

// --- Run loop ---

func (w *Worker) run() {
	defer close(w.done)
	defer w.unregister()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("workers: worker loop panic: %s", security.SanitizeErrorMessage(fmt.Sprint(r)))
			w.state.Store(int32(core.Failed))
			w.bus.Publish(&core.WorkerFailed{Key: w.key, Error: err, Timestamp: time.Now()})
			w.logger.Error("worker loop failed", "key", w.key, "error", err)
		}
	}()

	w.bus.Publish(&core.WorkerStarted{Key: w.key, Timestamp: time.Now()})
	w.logger.Debug("worker started", "key", w.key, "continuous", w.continuous)

	for {
		if w.ctx.Err() != nil {
			w.finishCancelled(context.Cause(w.ctx))
			return
		}

		if w.State() == core.Suspended {
			select {
			case <-w.wake:
			case <-w.ctx.Done():
			}
			continue
		}

		if w.sched != nil {
			if !w.sleepUntil(w.sched.Next(time.Now())) {
				// Woken early; recheck cancellation and suspension.
				continue
			}
		}

		err := w.invoke()

		var disposeErr *core.DisposeError
		var cancelErr *core.CancelError
		switch {
		case err == nil:
			if !w.continuous {
				// One-shot worker: the loop ends after one successful
				// iteration. State stays Running; Join or Dispose finalize.
				w.logger.Debug("worker completed", "key", w.key)
				return
			}
		case errors.As(err, &disposeErr):
			w.transition(core.Disposed)
			w.bus.Publish(&core.WorkerDisposed{Key: w.key, Timestamp: time.Now()})
			w.logger.Debug("worker disposed", "key", w.key)
			return
		case errors.As(err, &cancelErr):
			w.finishCancelled(err)
			return
		default:
			// A single failing item must not kill the worker.
			w.bus.Publish(&core.IterationFailed{Key: w.key, Error: err, Timestamp: time.Now()})
			w.logger.Warn("iteration failed", "key", w.key, "error", err)
		}
	}
}

// invoke runs the action, converting a panic into an ordinary error.
func (w *Worker) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workers: action panic: %s", security.SanitizeErrorMessage(fmt.Sprint(r)))
		}
	}()
	return w.action(w.ctx, w.bag)
}

func (w *Worker) finishCancelled(cause error) {
	w.transition(core.Cancelled)
	w.bus.Publish(&core.WorkerCancelled{Key: w.key, Cause: cause, Timestamp: time.Now()})
	w.logger.Debug("worker cancelled", "key", w.key, "cause", cause)
}

// transition moves to s unless the current state is terminal.
func (w *Worker) transition(s core.State) {
	for {
		cur := core.State(w.state.Load())
		if cur.Terminal() {
			return
		}
		if w.state.CompareAndSwap(int32(cur), int32(s)) {
			return
		}
	}
}

// sleepUntil blocks until t, reporting true on a full sleep and false on an
// early wake from poke or cancellation.
func (w *Worker) sleepUntil(t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-w.wake:
		return false
	case <-w.ctx.Done():
		return false
	}
}

func (w *Worker) poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) unregister() {
	if w.reg != nil {
		w.reg.Unregister(w.key)
	}
}
