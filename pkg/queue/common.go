package queue

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
	"github.com/jdziat/simple-task-workers/pkg/metrics"
	"github.com/jdziat/simple-task-workers/pkg/worker"
)

// Handler is the per-item callback invoked by a queue's workers. The bag is
// the consuming worker's data context; pool workers carry their index in it
// under BagWorkerIndex.
type Handler[T any] func(ctx context.Context, item T, bag *databag.Bag) error

// BagWorkerIndex is the bag key under which pool workers publish their
// zero-based index.
const BagWorkerIndex = "worker_index"

// WorkerIndex returns the consuming pool worker's index from its bag,
// or 0 for non-pool workers.
func WorkerIndex(bag *databag.Bag) int {
	return bag.GetInt(BagWorkerIndex)
}

// entry wraps a buffered item or the in-band stop sentinel.
type entry[T any] struct {
	item T
	stop bool
}

// runHandler delivers one popped item: it holds the item while the worker
// is suspended, honors the optional rate limiter, then invokes the handler
// and records metrics. A handler error is returned as-is so the worker loop
// reports it and continues.
func runHandler[T any](ctx context.Context, h Handler[T], item T, bag *databag.Bag, w *worker.Worker, lim *rate.Limiter, m *metrics.Metrics) error {
	if !w.AwaitRunning(ctx) {
		return core.CancelSignal(cancelCause(ctx))
	}
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return core.CancelSignal(err)
		}
	}

	start := time.Now()
	err := h(ctx, item, bag)
	if err != nil {
		m.Failed(time.Since(start).Seconds())
		return err
	}
	m.Completed(time.Since(start).Seconds())
	return nil
}

func cancelCause(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return core.ErrCancelled
}
