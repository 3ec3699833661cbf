package buffer

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/c360/boundedring/errors"
)

// MonitorBuffer is a bounded buffer guarded by a single mutex with two
// condition variables. Blocked callers are admitted in arrival order: each
// blocked Put or Take joins a FIFO queue and proceeds only once it is at the
// head and its condition holds.
type MonitorBuffer[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	// queues of *waiter, guarded by mu
	producers *queue.Queue
	consumers *queue.Queue

	ring *ring[T]
	in   instruments
}

// waiter is a queued Put or Take. An abandoned waiter stays in its queue
// until it reaches the head, where it is discarded.
type waiter struct {
	abandoned bool
}

var _ Buffer[int] = (*MonitorBuffer[int])(nil)

func newMonitorBuffer[T any](capacity int, opts *bufferOptions) (*MonitorBuffer[T], error) {
	if err := validateCapacity(capacity, "MonitorBuffer"); err != nil {
		return nil, err
	}

	in, err := newInstruments(opts, "MonitorBuffer")
	if err != nil {
		return nil, err
	}

	b := &MonitorBuffer[T]{
		producers: queue.New(),
		consumers: queue.New(),
		ring:      newRing[T](capacity),
		in:        in,
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)
	return b, nil
}

// Put blocks until there is space and no earlier producer is waiting, then
// appends item.
func (b *MonitorBuffer[T]) Put(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		b.in.cancelled(opPut)
		return errors.Cancelled(err, "MonitorBuffer", "Put")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	blocked := b.ring.full() || head(b.producers) != nil
	if blocked {
		start := time.Now()
		if err := b.await(ctx, b.producers, b.notFull, b.ring.full); err != nil {
			b.in.cancelled(opPut)
			return errors.Cancelled(err, "MonitorBuffer", "Put")
		}
		b.in.waited(opPut, time.Since(start).Seconds())
	}

	size := b.ring.push(item)
	b.in.put(size, b.ring.capacity(), blocked)

	b.notEmpty.Broadcast()
	if !b.ring.full() && head(b.producers) != nil {
		b.notFull.Broadcast()
	}
	return nil
}

// Take blocks until an item is present and no earlier consumer is waiting,
// then removes and returns the oldest item.
func (b *MonitorBuffer[T]) Take(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		b.in.cancelled(opTake)
		return zero, errors.Cancelled(err, "MonitorBuffer", "Take")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	blocked := b.ring.empty() || head(b.consumers) != nil
	if blocked {
		start := time.Now()
		if err := b.await(ctx, b.consumers, b.notEmpty, b.ring.empty); err != nil {
			b.in.cancelled(opTake)
			return zero, errors.Cancelled(err, "MonitorBuffer", "Take")
		}
		b.in.waited(opTake, time.Since(start).Seconds())
	}

	item, size := b.ring.pop()
	b.in.take(size, b.ring.capacity(), blocked)

	b.notFull.Broadcast()
	if !b.ring.empty() && head(b.consumers) != nil {
		b.notEmpty.Broadcast()
	}
	return item, nil
}

// await queues the caller on q and waits on cond until it is at the head of
// q and blocking reports false. It must be called with mu held and returns
// with mu held. On cancellation the waiter is abandoned and ctx.Err() is
// returned without touching the ring.
func (b *MonitorBuffer[T]) await(ctx context.Context, q *queue.Queue, cond *sync.Cond, blocking func() bool) error {
	w := &waiter{}
	q.Add(w)

	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		cond.Broadcast()
		b.mu.Unlock()
	})
	defer stop()

	for {
		if head(q) == w && !blocking() {
			q.Remove()
			return nil
		}
		if err := ctx.Err(); err != nil {
			w.abandoned = true
			head(q)
			// the next waiter may now be at the head with its condition met
			cond.Broadcast()
			return err
		}
		cond.Wait()
	}
}

// head discards abandoned waiters at the front of q and returns the first
// live one, or nil if none remain.
func head(q *queue.Queue) *waiter {
	for q.Length() > 0 {
		w := q.Peek().(*waiter)
		if !w.abandoned {
			return w
		}
		q.Remove()
	}
	return nil
}

// Size returns the number of stored items without taking the lock.
func (b *MonitorBuffer[T]) Size() int {
	return b.ring.size()
}

// Capacity returns the fixed capacity.
func (b *MonitorBuffer[T]) Capacity() int {
	return b.ring.capacity()
}

// Stats returns buffer statistics.
func (b *MonitorBuffer[T]) Stats() *Statistics {
	return b.in.stats
}

// waiting reports the number of queued producers and consumers, including
// abandoned entries not yet discarded. Used by tests to sequence arrivals.
func (b *MonitorBuffer[T]) waiting() (producers, consumers int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.producers.Length(), b.consumers.Length()
}
