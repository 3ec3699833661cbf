// Package buffer provides a fixed-capacity ring buffer shared by concurrent
// producers and consumers, with blocking backpressure in both directions.
//
// # Overview
//
// A producer calling Put on a full buffer waits until a consumer frees a slot.
// A consumer calling Take on an empty buffer waits until a producer stores an
// item. Items leave in the order they entered. Every blocking call accepts a
// context.Context; when it ends first the call returns an error matching
// errors.ErrCancelled and has no effect on the buffer.
//
// # Quick Start
//
//	buf, err := buffer.New[int](10)
//	if err != nil {
//		return err
//	}
//
//	if err := buf.Put(ctx, 42); err != nil {
//		return err
//	}
//
//	v, err := buf.Take(ctx)
//
// Choosing a strategy and exporting metrics:
//
//	buf, err := buffer.New[*Job](64,
//		buffer.WithStrategy(buffer.StrategyPermit),
//		buffer.WithMetrics(registry, "jobs"),
//	)
//
// # Strategies
//
// Monitor (StrategyMonitor, MonitorBuffer):
//   - One sync.Mutex guards the ring
//   - Producers wait on a "not full" condition, consumers on "not empty"
//   - Blocked callers queue per role and are admitted first come, first served
//   - A successful Put wakes consumers; a successful Take wakes producers
//
// Permit (StrategyPermit, PermitBuffer):
//   - emptySlots starts at capacity, filledSlots at zero, mutex at one
//   - Put: acquire emptySlots, acquire mutex, store, release mutex, release filledSlots
//   - Take mirrors Put with the roles of emptySlots and filledSlots swapped
//   - Permits come from golang.org/x/sync/semaphore, which serves waiters in order
//
// Both strategies hold emptySlots + filledSlots == capacity whenever no
// operation is inside its critical section, and the stored count never leaves
// [0, capacity].
//
// # Cancellation
//
// A context that is already done fails the call before it touches any lock
// or permit. A context that ends while the call is waiting withdraws the call:
// the monitor marks its queue entry abandoned, and the permit strategy returns
// any bounding permit it had already taken. Either way the buffer is unchanged.
//
// # Observability
//
// Statistics are always collected and available via Stats():
//   - completed, blocked and cancelled puts and takes
//   - current size and high-water mark
//   - put and take throughput
//
// Prometheus metrics are optional, enabled with WithMetrics(). They are
// labeled with the component name and exported under boundedring_buffer_*:
// puts_total, takes_total, cancellations_total{op}, size, utilization and
// wait_seconds{op}.
//
// # Thread Safety
//
// Put and Take are safe for any number of concurrent callers. Size and
// Capacity never block; Size reads an atomic counter and is advisory while
// other goroutines are active.
//
// # Testing
//
// The conformance suite runs every property against both strategies:
//
//	go test -race ./pkg/buffer
//
// Benchmarks compare the strategies under contention:
//
//	go test -bench=. ./pkg/buffer
package buffer
