package workers

import (
	"fmt"

	"github.com/jdziat/simple-task-workers/pkg/config"
	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/queue"
)

// BuildQueue constructs the queue variant declared by a manifest entry and
// binds it to the given handler. Extra options are applied after the ones
// derived from the definition, so callers can override or extend them.
// The queue is returned unstarted.
func BuildQueue[T any](def config.QueueDef, handler Handler[T], opts ...Option) (core.Queue[T], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	derived := []Option{queue.WithKey(def.Key)}
	if def.Capacity > 0 {
		derived = append(derived, queue.Capacity(def.Capacity))
	}
	if s := def.Schedule(); s != nil {
		derived = append(derived, queue.WithSchedule(s))
	}
	if grace := def.JoinGraceDuration(); grace > 0 {
		derived = append(derived, queue.WithJoinGrace(grace))
	}
	if def.RateLimit.PerSecond > 0 {
		derived = append(derived, queue.WithRateLimit(def.RateLimit.PerSecond, def.RateLimit.Burst))
	}
	derived = append(derived, opts...)

	switch def.Kind {
	case config.KindSequential:
		return queue.NewSequential(handler, derived...), nil
	case config.KindPool:
		return queue.NewPool(def.Workers, handler, derived...), nil
	case config.KindAsync:
		return queue.NewAsync(handler, derived...), nil
	default:
		return nil, fmt.Errorf("workers: unknown queue kind %q", def.Kind)
	}
}
