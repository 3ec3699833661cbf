package buffer

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/c360/boundedring/errors"
)

// PermitBuffer is a bounded buffer coordinated by three counting permits:
// emptySlots counts free slots, filledSlots counts stored items and mutex
// (a single permit) serializes access to the ring. Waiters on each permit are
// served in FIFO order.
//
// Acquisition order is fixed: the bounding permit first, then mutex.
// mutex is never held while waiting for a slot.
type PermitBuffer[T any] struct {
	emptySlots  *semaphore.Weighted
	filledSlots *semaphore.Weighted
	mutex       *semaphore.Weighted

	ring *ring[T]
	in   instruments
}

var _ Buffer[int] = (*PermitBuffer[int])(nil)

func newPermitBuffer[T any](capacity int, opts *bufferOptions) (*PermitBuffer[T], error) {
	if err := validateCapacity(capacity, "PermitBuffer"); err != nil {
		return nil, err
	}

	in, err := newInstruments(opts, "PermitBuffer")
	if err != nil {
		return nil, err
	}

	// Weighted has no way to start below its size, so filledSlots begins
	// fully drained.
	filled := semaphore.NewWeighted(int64(capacity))
	filled.TryAcquire(int64(capacity))

	return &PermitBuffer[T]{
		emptySlots:  semaphore.NewWeighted(int64(capacity)),
		filledSlots: filled,
		mutex:       semaphore.NewWeighted(1),
		ring:        newRing[T](capacity),
		in:          in,
	}, nil
}

// Put waits for a free slot, then for exclusion, then appends item.
func (b *PermitBuffer[T]) Put(ctx context.Context, item T) error {
	start := time.Now()
	blocked, err := acquire(ctx, b.emptySlots)
	if err != nil {
		b.in.cancelled(opPut)
		return errors.Cancelled(err, "PermitBuffer", "Put")
	}
	if _, err := acquire(ctx, b.mutex); err != nil {
		b.emptySlots.Release(1)
		b.in.cancelled(opPut)
		return errors.Cancelled(err, "PermitBuffer", "Put")
	}
	if blocked {
		b.in.waited(opPut, time.Since(start).Seconds())
	}

	// mutex goes back before the item is announced
	defer b.filledSlots.Release(1)
	defer b.mutex.Release(1)

	size := b.ring.push(item)
	b.in.put(size, b.ring.capacity(), blocked)
	return nil
}

// Take waits for a stored item, then for exclusion, then removes and returns
// the oldest item.
func (b *PermitBuffer[T]) Take(ctx context.Context) (T, error) {
	var zero T

	start := time.Now()
	blocked, err := acquire(ctx, b.filledSlots)
	if err != nil {
		b.in.cancelled(opTake)
		return zero, errors.Cancelled(err, "PermitBuffer", "Take")
	}
	if _, err := acquire(ctx, b.mutex); err != nil {
		b.filledSlots.Release(1)
		b.in.cancelled(opTake)
		return zero, errors.Cancelled(err, "PermitBuffer", "Take")
	}
	if blocked {
		b.in.waited(opTake, time.Since(start).Seconds())
	}

	defer b.emptySlots.Release(1)
	defer b.mutex.Release(1)

	item, size := b.ring.pop()
	b.in.take(size, b.ring.capacity(), blocked)
	return item, nil
}

// acquire takes one permit from sem, reporting whether the caller had to
// wait. A context that is already done fails even when a permit is free.
func acquire(ctx context.Context, sem *semaphore.Weighted) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if sem.TryAcquire(1) {
		return false, nil
	}
	return true, sem.Acquire(ctx, 1)
}

// Size returns the number of stored items without acquiring any permit.
func (b *PermitBuffer[T]) Size() int {
	return b.ring.size()
}

// Capacity returns the fixed capacity.
func (b *PermitBuffer[T]) Capacity() int {
	return b.ring.capacity()
}

// Stats returns buffer statistics.
func (b *PermitBuffer[T]) Stats() *Statistics {
	return b.in.stats
}
