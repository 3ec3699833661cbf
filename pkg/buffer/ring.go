package buffer

import "sync/atomic"

// ring is the fixed-size circular storage shared by every strategy.
// It is not safe for concurrent mutation: push and pop must run under the
// owning strategy's mutual exclusion. size may be read at any time.
type ring[T any] struct {
	slots []T
	head  int // next slot to read
	tail  int // next slot to write

	// count is the only input to full/empty decisions. Writes happen under
	// the strategy's exclusion; the atomic lets Size skip the lock.
	count atomic.Int64
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{slots: make([]T, capacity)}
}

// push stores item at tail and returns the new count. The caller guarantees
// the ring is not full.
func (r *ring[T]) push(item T) int {
	r.slots[r.tail] = item
	r.tail = (r.tail + 1) % len(r.slots)
	return int(r.count.Add(1))
}

// pop removes the item at head, zeroes its slot and returns the item with
// the new count. The caller guarantees the ring is not empty.
func (r *ring[T]) pop() (T, int) {
	var zero T
	item := r.slots[r.head]
	r.slots[r.head] = zero
	r.head = (r.head + 1) % len(r.slots)
	return item, int(r.count.Add(-1))
}

func (r *ring[T]) size() int {
	return int(r.count.Load())
}

func (r *ring[T]) capacity() int {
	return len(r.slots)
}

func (r *ring[T]) full() bool {
	return r.size() == len(r.slots)
}

func (r *ring[T]) empty() bool {
	return r.size() == 0
}
