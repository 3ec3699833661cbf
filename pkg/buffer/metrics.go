package buffer

import (
	"github.com/c360/boundedring/metric"
	"github.com/prometheus/client_golang/prometheus"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	puts          prometheus.Counter
	takes         prometheus.Counter
	cancellations *prometheus.CounterVec

	size        prometheus.Gauge
	utilization prometheus.Gauge

	// wait is observed only when an operation had to block
	wait *prometheus.HistogramVec
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
func newBufferMetrics(registry *metric.MetricsRegistry, component string) (*bufferMetrics, error) {
	labels := prometheus.Labels{"component": component}

	m := &bufferMetrics{
		puts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "puts_total",
			ConstLabels: labels,
			Help:        "Total number of completed put operations",
		}),
		takes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "takes_total",
			ConstLabels: labels,
			Help:        "Total number of completed take operations",
		}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "cancellations_total",
			ConstLabels: labels,
			Help:        "Total number of operations abandoned because their context ended",
		}, []string{"op"}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of items in buffer",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "utilization",
			ConstLabels: labels,
			Help:        "Buffer utilization as a ratio (0.0 to 1.0)",
		}),
		wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "boundedring",
			Subsystem:   "buffer",
			Name:        "wait_seconds",
			ConstLabels: labels,
			Help:        "Time blocked operations spent waiting for their turn",
			Buckets:     prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
	}

	if err := registry.RegisterCounter(component, "buffer_puts", m.puts); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(component, "buffer_takes", m.takes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(component, "buffer_cancellations", m.cancellations); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(component, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(component, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(component, "buffer_wait", m.wait); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordPut(size, capacity int) {
	m.puts.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordTake(size, capacity int) {
	m.takes.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordCancel(op string) {
	m.cancellations.WithLabelValues(op).Inc()
}

func (m *bufferMetrics) observeWait(op string, seconds float64) {
	m.wait.WithLabelValues(op).Observe(seconds)
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
