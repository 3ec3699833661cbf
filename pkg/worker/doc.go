// Package worker runs a producer/consumer workload against a bounded buffer.
//
// # Overview
//
// A Pool starts Producers goroutines that each put ItemsPerWorker items, and
// Consumers goroutines that together take exactly as many. Every worker pauses
// a random delay after each operation, drawn from its own *rand.Rand seeded
// with Seed plus the worker index, so a seed reproduces the same delay
// sequence for every worker. Producers draw from [MinDelay, MaxDelay].
// Consumers draw from [ConsumerMinDelay, ConsumerMaxDelay], or from the
// producer bounds when both are zero.
//
//	buf, _ := buffer.New[int](10, buffer.WithStrategy(buffer.StrategyPermit))
//
//	pool, err := worker.NewPool(buf, worker.Config{
//	    Producers:      3,
//	    Consumers:      3,
//	    ItemsPerWorker: 50,
//	    MinDelay:       5 * time.Millisecond,
//	    MaxDelay:       25 * time.Millisecond,
//	}, func(producer, seq int) int { return producer*1000 + seq })
//	if err != nil {
//	    return err
//	}
//
//	stats, err := pool.Run(ctx)
//
// # Lifecycle
//
// Workers run under an errgroup. Start returns immediately; Wait blocks until
// all workers exit; Run does both. Stop cancels the workers and waits up to a
// timeout.
//
// Cancelling the context given to Start is a clean exit, not a failure: every
// worker returns when its blocked Put, Take or delay reports
// errors.ErrCancelled, Wait returns a nil error and RunStats.Cancelled is true.
// Any other error, such as one from a ConsumeFunc, cancels the remaining
// workers and is returned from Wait.
//
// # Consumer Accounting
//
// Consumers claim each take from a shared counter before calling Take, so the
// total number of takes equals Producers*ItemsPerWorker regardless of how
// the work spreads across consumers.
//
// # Observability
//
// Each pool has a uuid run id attached to all of its log lines. Every Put and
// Take logs a debug status line with the worker name, item and buffer fill
// ("size/capacity"); the run logs a summary at info level. RunStats is always
// available; WithMetricsRegistry adds Prometheus counters for produced and
// consumed items, an active-worker gauge and a per-role operation latency
// histogram under boundedring_worker_*.
package worker
