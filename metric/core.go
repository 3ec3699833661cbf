package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run status values reported by RunStatus
const (
	StatusIdle = iota
	StatusRunning
	StatusCompleted
	StatusCancelled
	StatusFailed
)

// Metrics contains the process-level metrics shared by every run
type Metrics struct {
	RunStatus   *prometheus.GaugeVec
	RunDuration *prometheus.HistogramVec
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		RunStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "boundedring",
				Subsystem: "run",
				Name:      "status",
				Help:      "Run status (0=idle, 1=running, 2=completed, 3=cancelled, 4=failed)",
			},
			[]string{"strategy"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "boundedring",
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Wall-clock duration of a producer/consumer run",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"strategy"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "boundedring",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by class",
			},
			[]string{"strategy", "class"},
		),
	}
}

// RecordRunStatus updates the run status metric
func (c *Metrics) RecordRunStatus(strategy string, status int) {
	c.RunStatus.WithLabelValues(strategy).Set(float64(status))
}

// RecordRunDuration records how long a run took
func (c *Metrics) RecordRunDuration(strategy string, duration time.Duration) {
	c.RunDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (c *Metrics) RecordError(strategy, class string) {
	c.ErrorsTotal.WithLabelValues(strategy, class).Inc()
}
