package engine

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// Queue is a bounded MPSC ring buffer carrying messages to the run loop
// Thread-Safety:
//   - Push: multiple producers OK
//   - Consume: single consumer (run loop)
//   - Push and Consume share one lock; overflow advances head under it
//
// Overflow: Oldest entries overwritten when full, counted in Dropped
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
	mask  uint64
	size  uint64
	head  uint64 // Read index, guarded by mu
	tail  uint64 // Write index, guarded by mu

	dropped atomic.Uint64
}

// NewQueue creates a queue holding at least size entries, rounded up to a power of two
func NewQueue[T any](size int) *Queue[T] {
	if size < 2 {
		size = 2
	}
	n := uint64(1) << bits.Len64(uint64(size-1))
	return &Queue[T]{
		items: make([]T, n),
		mask:  n - 1,
		size:  n,
	}
}

// Push adds an entry, overwriting the oldest one when the ring is full
// Safe for concurrent producers. O(1)
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items[q.tail&q.mask] = item
	q.tail++
	if q.tail-q.head > q.size {
		q.head = q.tail - q.size
		q.dropped.Add(1)
	}
	q.mu.Unlock()
}

// Consume returns all pending entries in FIFO order and advances head
// Consumed slots are zeroed so the ring holds no stale references
func (q *Queue[T]) Consume() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.tail - q.head
	if n == 0 {
		return nil
	}
	result := make([]T, 0, n)
	var zero T
	for i := q.head; i < q.tail; i++ {
		idx := i & q.mask
		result = append(result, q.items[idx])
		q.items[idx] = zero
	}
	q.head = q.tail
	return result
}

// Len returns the pending entry count
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.tail - q.head)
}

// Cap returns the ring capacity
func (q *Queue[T]) Cap() int {
	return int(q.size)
}

// Dropped returns how many entries were overwritten before being consumed
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
