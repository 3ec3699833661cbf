// Package boundedring provides a bounded, blocking FIFO ring buffer with two
// interchangeable synchronization strategies and a producer/consumer harness
// that exercises them.
//
// # Architecture
//
// The module is split into a core library and the harness around it:
//
//	pkg/buffer  - Buffer[T] interface, MonitorBuffer and PermitBuffer
//	pkg/worker  - Pool running N producers and M consumers over one buffer
//	config      - layered JSON/YAML configuration with env overrides
//	errors      - error classification (transient, invalid, fatal) and sentinels
//	metric      - Prometheus registry, core run metrics, /metrics and /health server
//	health      - per-run health tracking and aggregation
//	cmd/boundedring - CLI wiring config, buffer, pool, metrics and signals
//
// The buffer never logs and owns no goroutines. Everything above it is
// optional: a caller that only needs a blocking queue imports pkg/buffer and
// nothing else.
//
// # Strategies
//
// Both strategies give the same observable behaviour: Put blocks while the
// buffer is full, Take blocks while it is empty, items leave in the order
// they were inserted, and blocked callers are admitted in arrival order.
//
//   - monitor: one mutex with notFull and notEmpty conditions
//   - permit: a counting permit for empty slots, one for filled slots, and a
//     binary permit guarding the ring indices
//
// # Cancellation
//
// Put and Take take a context.Context. A cancelled call returns an error
// matching errors.ErrCancelled and the context's own error, and leaves the
// buffer exactly as it was.
//
// # Quick Start
//
//	buf, err := buffer.New[int](10, buffer.WithStrategy(buffer.StrategyPermit))
//	if err != nil {
//	    return err
//	}
//	if err := buf.Put(ctx, 42); err != nil {
//	    return err
//	}
//	v, err := buf.Take(ctx)
//
// Running the harness:
//
//	./bin/boundedring --strategy=both --capacity=1 --producers=8 --seed=42
//	./bin/boundedring --config=configs/harness.yaml --metrics-port=9090
package boundedring
