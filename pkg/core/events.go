package core

import "time"

// Event is the interface for all worker and queue events.
type Event interface {
	eventMarker()
}

// WorkerStarted is emitted when a worker's run goroutine begins.
type WorkerStarted struct {
	Key       string
	Timestamp time.Time
}

func (*WorkerStarted) eventMarker() {}

// IterationFailed is emitted when a single action invocation fails.
// The worker loop continues; one bad item never kills the worker.
type IterationFailed struct {
	Key       string
	Error     error
	Timestamp time.Time
}

func (*IterationFailed) eventMarker() {}

// WorkerCancelled is emitted when a worker loop stops due to cancellation.
type WorkerCancelled struct {
	Key       string
	Cause     error
	Timestamp time.Time
}

func (*WorkerCancelled) eventMarker() {}

// WorkerDisposed is emitted when a worker loop stops due to disposal.
type WorkerDisposed struct {
	Key       string
	Timestamp time.Time
}

func (*WorkerDisposed) eventMarker() {}

// WorkerFailed is emitted when the worker machinery itself fails
// (not a failing action). The worker moves to the terminal Failed state.
type WorkerFailed struct {
	Key       string
	Error     error
	Timestamp time.Time
}

func (*WorkerFailed) eventMarker() {}

// ConfigRejected is emitted when a write-once configuration setter is
// called after the worker has started.
type ConfigRejected struct {
	Key       string
	Field     string
	Error     error
	Timestamp time.Time
}

func (*ConfigRejected) eventMarker() {}
