// Package buffer provides the unbounded FIFO blocking buffer backing the
// sequential and pool queue variants.
package buffer

import (
	"context"
	"sync"

	"github.com/jdziat/simple-task-workers/pkg/core"
)

// Buffer is an unbounded multi-producer, multi-consumer FIFO with a
// terminal "no more writes" state. Pushes never block. Pops block until an
// item is available, the buffer is closed and drained, or the context is
// done. Closing never loses already-buffered items: consumers keep
// draining until the buffer is empty.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool

	// ready carries chained wakeups: each woken consumer re-signals when
	// items remain or the buffer is closed, so one capacity-1 channel
	// serves any number of consumers.
	ready chan struct{}
}

// New creates an empty open buffer.
func New[T any]() *Buffer[T] {
	return &Buffer[T]{ready: make(chan struct{}, 1)}
}

// Push appends an item. Returns core.ErrBufferClosed once CompleteAdding
// has been called.
func (b *Buffer[T]) Push(item T) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrBufferClosed
	}
	b.items = append(b.items, item)
	b.mu.Unlock()

	b.signal()
	return nil
}

// Pop removes and returns the oldest item, blocking until one is available.
// It returns ok=false when the buffer is closed and fully drained, or when
// ctx is done.
func (b *Buffer[T]) Pop(ctx context.Context) (T, bool) {
	var zero T
	for {
		if item, ok := b.take(); ok {
			return item, true
		}

		b.mu.Lock()
		closed := b.closed && b.head >= len(b.items)
		b.mu.Unlock()
		if closed {
			// Wake the next blocked consumer so it observes the close too.
			b.signal()
			return zero, false
		}

		select {
		case <-ctx.Done():
			return zero, false
		case <-b.ready:
		}
	}
}

// TryPop removes and returns the oldest item without blocking.
func (b *Buffer[T]) TryPop() (T, bool) {
	return b.take()
}

func (b *Buffer[T]) take() (T, bool) {
	var zero T
	b.mu.Lock()
	if b.head >= len(b.items) {
		b.mu.Unlock()
		return zero, false
	}

	item := b.items[b.head]
	b.items[b.head] = zero // release the reference
	b.head++

	// Reclaim consumed slots once they dominate the backing slice.
	if b.head > 64 && b.head*2 >= len(b.items) {
		b.items = append(b.items[:0], b.items[b.head:]...)
		b.head = 0
	}

	more := b.head < len(b.items) || b.closed
	b.mu.Unlock()

	if more {
		b.signal()
	}
	return item, true
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) - b.head
}

// CompleteAdding closes the buffer for writes. Buffered items remain
// poppable; blocked consumers are woken.
func (b *Buffer[T]) CompleteAdding() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

// Closed reports whether CompleteAdding has been called.
func (b *Buffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer[T]) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
