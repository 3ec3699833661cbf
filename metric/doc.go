// Package metric provides Prometheus-based metrics collection and an HTTP server
// for boundedring runs.
//
// The package offers a centralized registry holding both core run metrics
// (status, duration, errors by class) and component-specific metrics registered
// by the buffer and worker packages. Registration is keyed by component and
// metric name so two components can never silently share a collector.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//	if err := server.Start(); err != nil {
//	    return err
//	}
//	defer server.Stop(context.Background())
//
//	registry.CoreMetrics().RecordRunStatus("monitor", metric.StatusRunning)
//
// Components register their own collectors through MetricsRegistrar:
//
//	puts := prometheus.NewCounter(prometheus.CounterOpts{Name: "puts_total", Help: "..."})
//	if err := registry.RegisterCounter("ring", "puts_total", puts); err != nil {
//	    return err
//	}
//
// Duplicate registrations are reported as Invalid errors, Prometheus-level
// failures as Fatal.
//
// The server also answers /health. With a health.Monitor attached through
// SetHealthMonitor it serves the aggregate status as JSON and returns 503
// while any run is unhealthy; otherwise it replies "OK".
package metric
