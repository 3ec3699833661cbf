package buffer

import (
	"github.com/c360/boundedring/metric"
)

// Option configures buffer behavior using the functional options pattern.
type Option func(*bufferOptions)

// bufferOptions holds internal configuration for buffer instances.
// Stats are ALWAYS collected - they are not optional.
// Metrics are optional and exposed via WithMetrics().
type bufferOptions struct {
	strategy Strategy

	// metricsReg is optional - if provided, buffer events are also exposed as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string
}

// WithStrategy selects the synchronization strategy used by New.
// Defaults to StrategyMonitor if not specified.
func WithStrategy(strategy Strategy) Option {
	return func(opts *bufferOptions) {
		opts.strategy = strategy
	}
}

// WithMetrics enables Prometheus metrics export for buffer events.
// If registry is nil or component is empty, this option is ignored.
// Two buffers sharing a registry need distinct component names.
func WithMetrics(registry *metric.MetricsRegistry, component string) Option {
	return func(opts *bufferOptions) {
		if registry != nil && component != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = component
		}
	}
}

func applyOptions(options ...Option) *bufferOptions {
	opts := &bufferOptions{
		strategy: StrategyMonitor,
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
