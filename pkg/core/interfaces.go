package core

import "time"

// Lifecycle is the control surface shared by workers and every queue variant.
//
// Lifecycle methods never return an error synchronously except
// ErrUnsupported; runtime failures are published on the event bus.
type Lifecycle interface {
	// Start begins execution. Repeated calls after the first are no-ops.
	Start() error

	// Cancel requests cooperative termination without blocking.
	Cancel() error

	// Suspend pauses consumption before the next iteration. No-op unless Running.
	Suspend() error

	// Resume continues consumption. No-op unless Suspended.
	Resume() error

	// Join unblocks suspension, deregisters, waits a bounded grace period for
	// the run goroutine to exit, then cancels unconditionally. Idempotent.
	Join() error

	// Wait blocks until execution has finished or the timeout elapses,
	// reporting whether execution finished.
	Wait(timeout time.Duration) bool

	// Dispose joins, releases the cancellation resource, and forces the
	// terminal Disposed state. The worker must not be restarted afterwards.
	Dispose() error

	// State returns the current lifecycle state.
	State() State

	// Key returns the identity under which the component registers.
	Key() string
}

// Queue is the surface common to the sequential, pool, and async variants.
type Queue[T any] interface {
	Lifecycle

	// Push enqueues an item if the queue is accepting work, reporting
	// whether the item was admitted. Push never blocks.
	Push(item T) bool

	// ForcePush enqueues regardless of worker state. It still fails once
	// the backing buffer is closed for writes.
	ForcePush(item T) bool

	// PushSentinel enqueues an in-band stop marker that terminates
	// draining when consumed. Items behind it are not delivered.
	PushSentinel() bool

	// Count returns the number of items currently buffered.
	Count() int

	// Events returns a subscription to the queue's event bus.
	Events() <-chan Event
}
