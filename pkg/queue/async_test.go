package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-task-workers/pkg/core"
	"github.com/jdziat/simple-task-workers/pkg/databag"
)

func TestAsync_DeliversPushedItems(t *testing.T) {
	rec := &recorder{}
	q := NewAsync(rec.handler(), WithKey("async-basic"))

	require.NoError(t, q.Start())
	for i := 0; i < 10; i++ {
		require.True(t, q.Push(i))
	}

	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second), "consumer must release after close")

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, rec.snapshot(),
		"single reader processes sequentially")
}

func TestAsync_StateFollowsTaskLifecycle(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	assert.Equal(t, core.Uninitialized, q.State())

	require.NoError(t, q.Start())
	assert.Equal(t, core.Running, q.State())

	require.NoError(t, q.Cancel())
	require.True(t, q.Wait(time.Second))
	assert.Equal(t, core.Disposed, q.State(), "completed task maps to Disposed")
}

func TestAsync_CancelBeforeStart(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	require.NoError(t, q.Cancel())
	assert.Equal(t, core.Cancelled, q.State())
	assert.True(t, q.Wait(time.Second), "never-started task releases immediately")

	// Start after close schedules nothing.
	require.NoError(t, q.Start())
	assert.Equal(t, core.Cancelled, q.State())
}

func TestAsync_SuspendResumeUnsupported(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	assert.ErrorIs(t, q.Suspend(), core.ErrUnsupported)
	assert.ErrorIs(t, q.Resume(), core.ErrUnsupported)
}

func TestAsync_PushBeforeStartIsDropped(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	assert.False(t, q.Push(1))
	assert.Equal(t, 0, q.Count())
}

func TestAsync_ForcePushBeforeStartBuffers(t *testing.T) {
	rec := &recorder{}
	q := NewAsync(rec.handler())

	require.True(t, q.ForcePush(5))
	assert.Equal(t, 1, q.Count())

	require.NoError(t, q.Start())
	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second))

	assert.Equal(t, []int{5}, rec.snapshot())
}

func TestAsync_DropsOnFullChannel(t *testing.T) {
	release := make(chan struct{})
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		<-release
		return nil
	}, Capacity(2))

	require.NoError(t, q.Start())

	// Fill the channel past capacity while the consumer is blocked; extra
	// pushes must drop silently, no back-pressure on the producer.
	accepted := 0
	for i := 0; i < 10; i++ {
		if q.Push(i) {
			accepted++
		}
	}
	assert.Less(t, accepted, 10, "a full channel must reject pushes")
	assert.GreaterOrEqual(t, accepted, 2)

	close(release)
	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second))
}

func TestAsync_PushAfterCloseFails(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	require.NoError(t, q.Start())
	require.NoError(t, q.Cancel())

	assert.False(t, q.Push(1))
	assert.False(t, q.ForcePush(2))
	assert.False(t, q.PushSentinel())
}

func TestAsync_DrainsBufferedItemsAfterClose(t *testing.T) {
	rec := &recorder{}
	q := NewAsync(rec.handler())

	require.NoError(t, q.Start())
	for i := 0; i < 5; i++ {
		require.True(t, q.Push(i))
	}

	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second))

	assert.Len(t, rec.snapshot(), 5, "already-buffered entries are drained after close")
}

func TestAsync_SentinelStopsConsumption(t *testing.T) {
	rec := &recorder{}
	q := NewAsync(rec.handler(), WithKey("async-sentinel"))

	require.NoError(t, q.Start())
	require.True(t, q.Push(1))
	require.True(t, q.PushSentinel())
	require.True(t, q.Push(2))

	require.True(t, q.Wait(time.Second), "sentinel releases the consumer")
	assert.Equal(t, []int{1}, rec.snapshot(), "entries behind the sentinel are not delivered")
	assert.Equal(t, core.Disposed, q.State())
}

func TestAsync_CancelJoinInterruptDisposeEquivalent(t *testing.T) {
	for _, op := range []struct {
		name string
		call func(q *Async[int]) error
	}{
		{"cancel", func(q *Async[int]) error { return q.Cancel() }},
		{"join", func(q *Async[int]) error { return q.Join() }},
		{"interrupt", func(q *Async[int]) error { return q.Interrupt() }},
		{"dispose", func(q *Async[int]) error { return q.Dispose() }},
	} {
		t.Run(op.name, func(t *testing.T) {
			q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
				return nil
			})
			require.NoError(t, q.Start())

			require.NoError(t, op.call(q))
			assert.False(t, q.Push(1), "channel closed for writes")
			assert.True(t, q.Wait(time.Second), "task released")
		})
	}
}

func TestAsync_ShutdownIsIdempotent(t *testing.T) {
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})

	require.NoError(t, q.Start())
	require.NoError(t, q.Cancel())
	require.NoError(t, q.Join())
	require.NoError(t, q.Dispose())
}

func TestAsync_HandlerErrorContinuesConsumption(t *testing.T) {
	var delivered atomic.Int32
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		delivered.Add(1)
		if item == 1 {
			return errors.New("bad item")
		}
		return nil
	})

	events := q.Events()
	require.NoError(t, q.Start())

	q.Push(1)
	q.Push(2)
	q.Push(3)

	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second))

	assert.Equal(t, int32(3), delivered.Load())

	var failures int
	for len(events) > 0 {
		if _, ok := (<-events).(*core.IterationFailed); ok {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
}

func TestAsync_HandlerPanicContinuesConsumption(t *testing.T) {
	var delivered atomic.Int32
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		delivered.Add(1)
		if item == 1 {
			panic("boom")
		}
		return nil
	})

	require.NoError(t, q.Start())
	q.Push(1)
	q.Push(2)

	require.NoError(t, q.Join())
	require.True(t, q.Wait(time.Second))

	assert.Equal(t, int32(2), delivered.Load())
	assert.Equal(t, core.Disposed, q.State(), "recovered panic must not fault the task")
}

func TestAsync_ConcurrentProducers(t *testing.T) {
	var delivered atomic.Int32
	q := NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		delivered.Add(1)
		return nil
	}, Capacity(4096))

	require.NoError(t, q.Start())

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if q.Push(i) {
					accepted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.NoError(t, q.Join())
	require.True(t, q.Wait(2*time.Second))

	assert.Equal(t, accepted.Load(), delivered.Load(), "every accepted item delivered exactly once")
}

func TestAsync_ImplementsQueueInterface(t *testing.T) {
	var _ core.Queue[int] = NewAsync(func(ctx context.Context, item int, bag *databag.Bag) error {
		return nil
	})
}
