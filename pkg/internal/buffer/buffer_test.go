package buffer

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-task-workers/pkg/core"
)

func TestBuffer_FIFO(t *testing.T) {
	buf := New[int]()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, buf.Push(i))
	}

	for i := 1; i <= 5; i++ {
		v, ok := buf.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, buf.Len())
}

func TestBuffer_PopBlocksUntilPush(t *testing.T) {
	buf := New[string]()

	got := make(chan string, 1)
	go func() {
		v, ok := buf.Pop(context.Background())
		if ok {
			got <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, buf.Push("hello"))

	select {
	case v := <-got:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake on push")
	}
}

func TestBuffer_PopRespectsContext(t *testing.T) {
	buf := New[int]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := buf.Pop(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop did not return on context cancellation")
	}
}

func TestBuffer_PushAfterCompleteAdding(t *testing.T) {
	buf := New[int]()
	require.NoError(t, buf.Push(1))

	buf.CompleteAdding()

	assert.ErrorIs(t, buf.Push(2), core.ErrBufferClosed)
	assert.True(t, buf.Closed())
	assert.Equal(t, 1, buf.Len())
}

func TestBuffer_DrainsAfterClose(t *testing.T) {
	buf := New[int]()
	for i := 1; i <= 3; i++ {
		require.NoError(t, buf.Push(i))
	}

	buf.CompleteAdding()

	// Already-buffered items are never lost.
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		v, ok := buf.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	_, ok := buf.Pop(ctx)
	assert.False(t, ok, "drained closed buffer must report done")
}

func TestBuffer_CloseWakesAllBlockedConsumers(t *testing.T) {
	buf := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Pop(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	buf.CompleteAdding()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked consumers were not woken by close")
	}
}

func TestBuffer_TryPop(t *testing.T) {
	buf := New[int]()

	_, ok := buf.TryPop()
	assert.False(t, ok)

	require.NoError(t, buf.Push(7))
	v, ok := buf.TryPop()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestBuffer_MultiProducerMultiConsumer(t *testing.T) {
	buf := New[int]()
	const producers = 4
	const perProducer = 250
	const total = producers * perProducer

	var pushWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		pushWG.Add(1)
		go func(base int) {
			defer pushWG.Done()
			for i := 0; i < perProducer; i++ {
				_ = buf.Push(base + i)
			}
		}(p * perProducer)
	}

	var mu sync.Mutex
	var got []int
	var popWG sync.WaitGroup
	for c := 0; c < 3; c++ {
		popWG.Add(1)
		go func() {
			defer popWG.Done()
			for {
				v, ok := buf.Pop(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
			}
		}()
	}

	pushWG.Wait()
	buf.CompleteAdding()
	popWG.Wait()

	require.Len(t, got, total)
	sort.Ints(got)
	for i := 0; i < total; i++ {
		assert.Equal(t, i, got[i], "each pushed item delivered exactly once")
	}
}

func TestBuffer_CompactionPreservesOrder(t *testing.T) {
	buf := New[int]()
	ctx := context.Background()

	// Push and pop enough to trigger slice compaction.
	next := 0
	for i := 0; i < 300; i++ {
		require.NoError(t, buf.Push(i))
	}
	for i := 0; i < 200; i++ {
		v, ok := buf.Pop(ctx)
		require.True(t, ok)
		require.Equal(t, next, v)
		next++
	}
	for i := 300; i < 400; i++ {
		require.NoError(t, buf.Push(i))
	}
	for next < 400 {
		v, ok := buf.Pop(ctx)
		require.True(t, ok)
		require.Equal(t, next, v)
		next++
	}
}
