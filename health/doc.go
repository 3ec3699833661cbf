// Package health provides health tracking for harness runs with thread-safe
// status updates and aggregation.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: the run is in progress or finished with balanced totals
//   - Degraded: the run was cancelled before delivering every item
//   - Unhealthy: the run failed
//
// # Basic Usage
//
//	monitor := health.NewMonitor()
//
//	monitor.UpdateHealthy("monitor", "Run in progress")
//	monitor.UpdateDegraded("permit", "Run cancelled")
//
//	system := monitor.AggregateHealth("boundedring")
//	if system.IsDegraded() {
//	    log.Printf("harness degraded: %s", system.Message)
//	}
//
// A failed run is recorded with FromError, which strips URLs, paths,
// addresses and credentials from the message before it is served:
//
//	monitor.Update("permit", health.FromError("permit", err))
//
// metric.Server serves the aggregate as JSON on /health when given a monitor.
//
// # Thread Safety
//
// Monitor is safe for concurrent use. Status values are copied on every read.
package health
