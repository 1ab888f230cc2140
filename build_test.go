package workers_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workers "github.com/jdziat/simple-task-workers"
	"github.com/jdziat/simple-task-workers/pkg/config"
)

func nopHandler(context.Context, int, *workers.Bag) error { return nil }

func TestBuildQueue_Sequential(t *testing.T) {
	q, err := workers.BuildQueue(config.QueueDef{Key: "seq", Kind: config.KindSequential}, nopHandler)
	require.NoError(t, err)

	_, ok := q.(*workers.SequentialQueue[int])
	assert.True(t, ok)
	assert.Equal(t, "seq", q.Key())
}

func TestBuildQueue_Pool(t *testing.T) {
	def := config.QueueDef{Key: "pool", Kind: config.KindPool, Workers: 3}
	q, err := workers.BuildQueue(def, nopHandler)
	require.NoError(t, err)

	pool, ok := q.(*workers.WorkerPool[int])
	require.True(t, ok)
	assert.Equal(t, 3, pool.Size())
}

func TestBuildQueue_Async(t *testing.T) {
	def := config.QueueDef{Key: "async", Kind: config.KindAsync, Capacity: 16}
	q, err := workers.BuildQueue(def, nopHandler)
	require.NoError(t, err)

	_, ok := q.(*workers.AsyncQueue[int])
	assert.True(t, ok)
}

func TestBuildQueue_InvalidDefinition(t *testing.T) {
	_, err := workers.BuildQueue(config.QueueDef{Key: "x", Kind: "turbo"}, nopHandler)
	assert.ErrorContains(t, err, "unknown kind")

	_, err = workers.BuildQueue(config.QueueDef{Key: "9x", Kind: config.KindPool}, nopHandler)
	assert.Error(t, err)
}

func TestBuildQueue_ExtraOptionsOverride(t *testing.T) {
	def := config.QueueDef{Key: "orig", Kind: config.KindSequential}
	q, err := workers.BuildQueue(def, nopHandler, workers.WithKey("overridden"))
	require.NoError(t, err)

	assert.Equal(t, "overridden", q.Key())
}

func TestBuildQueue_EndToEnd(t *testing.T) {
	var mu sync.Mutex
	var got []int
	def := config.QueueDef{Key: "e2e", Kind: config.KindSequential}

	q, err := workers.BuildQueue(def, func(_ context.Context, item int, _ *workers.Bag) error {
		mu.Lock()
		got = append(got, item)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, q.Start())
	for _, n := range []int{1, 2, 3} {
		require.True(t, q.Push(n))
	}
	require.NoError(t, q.Join())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, got)
}
