// Package worker runs producer and consumer goroutines against a shared bounded buffer
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/c360/boundedring/errors"
	"github.com/c360/boundedring/metric"
	"github.com/c360/boundedring/pkg/buffer"
)

// Config describes the shape of a run
type Config struct {
	Producers      int
	Consumers      int
	ItemsPerWorker int // items each producer puts
	MinDelay       time.Duration
	MaxDelay       time.Duration
	Seed           int64 // 0 picks a time-based seed

	// Consumer pause bounds. Both zero means consumers use MinDelay and MaxDelay.
	ConsumerMinDelay time.Duration
	ConsumerMaxDelay time.Duration
}

// consumerDelays returns the pause bounds consumers draw from
func (c Config) consumerDelays() (lo, hi time.Duration) {
	if c.ConsumerMinDelay == 0 && c.ConsumerMaxDelay == 0 {
		return c.MinDelay, c.MaxDelay
	}
	return c.ConsumerMinDelay, c.ConsumerMaxDelay
}

// Validate checks the run shape
func (c Config) Validate() error {
	var problem string
	switch {
	case c.Producers < 1:
		problem = fmt.Sprintf("producers must be at least 1, got %d", c.Producers)
	case c.Consumers < 1:
		problem = fmt.Sprintf("consumers must be at least 1, got %d", c.Consumers)
	case c.ItemsPerWorker < 0:
		problem = fmt.Sprintf("items per worker cannot be negative, got %d", c.ItemsPerWorker)
	case c.MinDelay < 0:
		problem = fmt.Sprintf("min delay cannot be negative, got %s", c.MinDelay)
	case c.MaxDelay < c.MinDelay:
		problem = fmt.Sprintf("max delay %s is below min delay %s", c.MaxDelay, c.MinDelay)
	case c.ConsumerMinDelay < 0:
		problem = fmt.Sprintf("consumer min delay cannot be negative, got %s", c.ConsumerMinDelay)
	case c.ConsumerMaxDelay < c.ConsumerMinDelay:
		problem = fmt.Sprintf("consumer max delay %s is below consumer min delay %s", c.ConsumerMaxDelay, c.ConsumerMinDelay)
	default:
		return nil
	}
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrInvalidConfig, problem), "Pool", "Validate", "validate config")
}

// ItemFunc builds the item a producer puts for its seq-th call
type ItemFunc[T any] func(producer, seq int) T

// ConsumeFunc handles an item after a consumer took it. A non-nil error stops the run.
type ConsumeFunc[T any] func(ctx context.Context, consumer int, item T) error

// Pool runs producers and consumers against one buffer
type Pool[T any] struct {
	// Configuration
	buf     buffer.Buffer[T]
	cfg     Config
	seed    int64
	item    ItemFunc[T]
	consume ConsumeFunc[T]
	logger  *slog.Logger
	runID   string

	// Runtime state
	group     *errgroup.Group
	cancel    context.CancelFunc
	done      chan struct{}
	err       error
	startTime time.Time
	duration  time.Duration
	metrics   *Metrics

	// Lifecycle management
	lifecycleMu sync.Mutex
	started     bool

	// Statistics (atomic)
	produced  int64
	consumed  int64
	cancelled int64
	active    int64
	remaining atomic.Int64 // takes not yet claimed by a consumer

	// Metrics configuration
	metricsRegistry *metric.MetricsRegistry
	metricsPrefix   string
}

// Metrics holds Prometheus metrics for a run
type Metrics struct {
	produced      prometheus.Counter
	consumed      prometheus.Counter
	activeWorkers prometheus.Gauge
	opDuration    *prometheus.HistogramVec
}

// Option represents a configuration option for the pool
type Option[T any] func(*Pool[T])

// WithMetricsRegistry registers run metrics under the given component label
func WithMetricsRegistry[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(p *Pool[T]) {
		p.metricsRegistry = registry
		p.metricsPrefix = prefix
	}
}

// WithLogger sets the logger for per-operation status lines and the run summary
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConsumeFunc sets a handler called for every taken item
func WithConsumeFunc[T any](fn ConsumeFunc[T]) Option[T] {
	return func(p *Pool[T]) {
		p.consume = fn
	}
}

// NewPool creates a pool over buf. item must not be nil.
func NewPool[T any](buf buffer.Buffer[T], cfg Config, item ItemFunc[T], opts ...Option[T]) (*Pool[T], error) {
	if buf == nil {
		return nil, errors.WrapInvalid(ErrNilBuffer, "Pool", "NewPool", "validate buffer")
	}
	if item == nil {
		return nil, errors.WrapInvalid(ErrNilItemFunc, "Pool", "NewPool", "validate item func")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	pool := &Pool[T]{
		buf:    buf,
		cfg:    cfg,
		seed:   seed,
		item:   item,
		logger: slog.Default(),
		runID:  uuid.NewString(),
		done:   make(chan struct{}),
	}

	// Apply options
	for _, opt := range opts {
		opt(pool)
	}
	pool.logger = pool.logger.With("run_id", pool.runID)

	if pool.metricsRegistry != nil && pool.metricsPrefix != "" {
		if err := pool.initializeMetrics(); err != nil {
			return nil, errors.WrapTransient(err, "Pool", "NewPool", "metrics registration")
		}
	}

	return pool, nil
}

// initializeMetrics creates and registers metrics with the framework's registry
func (p *Pool[T]) initializeMetrics() error {
	labels := prometheus.Labels{"component": p.metricsPrefix}

	m := &Metrics{
		produced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedring",
			Subsystem:   "worker",
			Name:        "items_produced_total",
			ConstLabels: labels,
			Help:        "Total items put by producers",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedring",
			Subsystem:   "worker",
			Name:        "items_consumed_total",
			ConstLabels: labels,
			Help:        "Total items taken by consumers",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "boundedring",
			Subsystem:   "worker",
			Name:        "active",
			ConstLabels: labels,
			Help:        "Producers and consumers currently running",
		}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "boundedring",
			Subsystem:   "worker",
			Name:        "op_duration_seconds",
			ConstLabels: labels,
			Help:        "Time a worker spent inside Put or Take, including blocking",
			Buckets:     []float64{0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"role"}),
	}

	if err := p.metricsRegistry.RegisterCounter(p.metricsPrefix, "worker_produced", m.produced); err != nil {
		return err
	}
	if err := p.metricsRegistry.RegisterCounter(p.metricsPrefix, "worker_consumed", m.consumed); err != nil {
		return err
	}
	if err := p.metricsRegistry.RegisterGauge(p.metricsPrefix, "worker_active", m.activeWorkers); err != nil {
		return err
	}
	if err := p.metricsRegistry.RegisterHistogramVec(p.metricsPrefix, "worker_op_duration", m.opDuration); err != nil {
		return err
	}

	p.metrics = m
	return nil
}

// RunID returns the identifier attached to every log line of this pool
func (p *Pool[T]) RunID() string {
	return p.runID
}

// Seed returns the base seed in use, including a generated one
func (p *Pool[T]) Seed() int64 {
	return p.seed
}

// Start launches all producers and consumers. It returns immediately.
func (p *Pool[T]) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	total := int64(p.cfg.Producers) * int64(p.cfg.ItemsPerWorker)
	p.remaining.Store(total)

	runCtx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(runCtx)
	p.cancel = cancel
	p.group = group
	p.startTime = time.Now()

	p.logger.Info("Run starting",
		"producers", p.cfg.Producers,
		"consumers", p.cfg.Consumers,
		"items_per_producer", p.cfg.ItemsPerWorker,
		"capacity", p.buf.Capacity(),
		"seed", p.seed)

	for i := 0; i < p.cfg.Producers; i++ {
		group.Go(func() error { return p.producer(gctx, i) })
	}
	for i := 0; i < p.cfg.Consumers; i++ {
		group.Go(func() error { return p.consumer(gctx, i) })
	}

	go func() {
		p.err = group.Wait()
		p.duration = time.Since(p.startTime)
		cancel()
		close(p.done)
	}()

	p.started = true
	return nil
}

// Wait blocks until every worker has exited and returns the run statistics.
// Cancellation of the Start context is a clean exit: the error is nil and
// RunStats.Cancelled is set.
func (p *Pool[T]) Wait() (RunStats, error) {
	p.lifecycleMu.Lock()
	started := p.started
	p.lifecycleMu.Unlock()
	if !started {
		return RunStats{}, ErrPoolNotStarted
	}

	<-p.done
	stats := p.Stats()
	if p.err != nil {
		p.logger.Error("Run failed", "error", p.err, "duration", stats.Duration)
		return stats, p.err
	}

	p.logger.Info("Run complete",
		"produced", stats.Produced,
		"consumed", stats.Consumed,
		"cancelled", stats.Cancelled,
		"duration", stats.Duration,
		"max_size", stats.Buffer.MaxSize,
		"throughput", fmt.Sprintf("%.1f/s", stats.Buffer.Throughput))
	return stats, nil
}

// Run starts the pool and waits for it to finish
func (p *Pool[T]) Run(ctx context.Context) (RunStats, error) {
	if err := p.Start(ctx); err != nil {
		return RunStats{}, err
	}
	return p.Wait()
}

// Stop cancels all workers and waits up to timeout for them to exit
func (p *Pool[T]) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	if !p.started {
		p.lifecycleMu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.lifecycleMu.Unlock()

	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Stats returns current run statistics
func (p *Pool[T]) Stats() RunStats {
	p.lifecycleMu.Lock()
	startTime := p.startTime
	p.lifecycleMu.Unlock()

	stats := RunStats{
		RunID:     p.runID,
		Producers: p.cfg.Producers,
		Consumers: p.cfg.Consumers,
		Capacity:  p.buf.Capacity(),
		Seed:      p.seed,
		Expected:  int64(p.cfg.Producers) * int64(p.cfg.ItemsPerWorker),
		Produced:  atomic.LoadInt64(&p.produced),
		Consumed:  atomic.LoadInt64(&p.consumed),
		Active:    atomic.LoadInt64(&p.active),
		Buffer:    p.buf.Stats().Summary(),
	}

	select {
	case <-p.done:
		stats.Duration = p.duration
		stats.Cancelled = atomic.LoadInt64(&p.cancelled) > 0
	default:
		if !startTime.IsZero() {
			stats.Duration = time.Since(startTime)
		}
	}
	return stats
}

// RunStats represents run statistics
type RunStats struct {
	RunID     string              `json:"run_id"`
	Producers int                 `json:"producers"`
	Consumers int                 `json:"consumers"`
	Capacity  int                 `json:"capacity"`
	Seed      int64               `json:"seed"`
	Expected  int64               `json:"expected"`
	Produced  int64               `json:"produced"`
	Consumed  int64               `json:"consumed"`
	Active    int64               `json:"active"`
	Cancelled bool                `json:"cancelled"`
	Duration  time.Duration       `json:"duration"`
	Buffer    buffer.StatsSummary `json:"buffer"`
}

// producer puts ItemsPerWorker items, pausing a random delay after each
func (p *Pool[T]) producer(ctx context.Context, id int) error {
	name := fmt.Sprintf("Producer-%d", id)
	d := newDelayer(p.seed, id, p.cfg.MinDelay, p.cfg.MaxDelay)
	p.enter()
	defer p.exit()

	for seq := 0; seq < p.cfg.ItemsPerWorker; seq++ {
		item := p.item(id, seq)
		start := time.Now()
		if err := p.buf.Put(ctx, item); err != nil {
			return p.stopped(name, err)
		}

		atomic.AddInt64(&p.produced, 1)
		if p.metrics != nil {
			p.metrics.produced.Inc()
			p.metrics.opDuration.WithLabelValues("producer").Observe(time.Since(start).Seconds())
		}
		p.logger.Debug("produced", "worker", name, "item", item, "buf", p.fill())

		if err := d.sleep(ctx); err != nil {
			return p.stopped(name, err)
		}
	}
	return nil
}

// consumer takes items until the run's total has been claimed
func (p *Pool[T]) consumer(ctx context.Context, id int) error {
	name := fmt.Sprintf("Consumer-%d", id)
	lo, hi := p.cfg.consumerDelays()
	d := newDelayer(p.seed, p.cfg.Producers+id, lo, hi)
	p.enter()
	defer p.exit()

	for p.remaining.Add(-1) >= 0 {
		start := time.Now()
		item, err := p.buf.Take(ctx)
		if err != nil {
			return p.stopped(name, err)
		}

		atomic.AddInt64(&p.consumed, 1)
		if p.metrics != nil {
			p.metrics.consumed.Inc()
			p.metrics.opDuration.WithLabelValues("consumer").Observe(time.Since(start).Seconds())
		}
		p.logger.Debug("consumed", "worker", name, "item", item, "buf", p.fill())

		if p.consume != nil {
			if err := p.consume(ctx, id, item); err != nil {
				return errors.Wrap(err, "Pool", name, "consume item")
			}
		}

		if err := d.sleep(ctx); err != nil {
			return p.stopped(name, err)
		}
	}
	return nil
}

// stopped turns a cancellation into a clean worker exit and passes other errors through
func (p *Pool[T]) stopped(name string, err error) error {
	if errors.IsCancelled(err) {
		atomic.AddInt64(&p.cancelled, 1)
		p.logger.Debug("worker stopped", "worker", name, "reason", err)
		return nil
	}
	return err
}

func (p *Pool[T]) enter() {
	n := atomic.AddInt64(&p.active, 1)
	if p.metrics != nil {
		p.metrics.activeWorkers.Set(float64(n))
	}
}

func (p *Pool[T]) exit() {
	n := atomic.AddInt64(&p.active, -1)
	if p.metrics != nil {
		p.metrics.activeWorkers.Set(float64(n))
	}
}

func (p *Pool[T]) fill() string {
	return fmt.Sprintf("%d/%d", p.buf.Size(), p.buf.Capacity())
}

// delayer yields reproducible pauses in [lo, hi] for one worker
type delayer struct {
	rnd    *rand.Rand
	lo, hi time.Duration
}

func newDelayer(seed int64, index int, lo, hi time.Duration) *delayer {
	return &delayer{
		rnd: rand.New(rand.NewSource(seed + int64(index))),
		lo:  lo,
		hi:  hi,
	}
}

func (d *delayer) next() time.Duration {
	if d.hi <= d.lo {
		return d.lo
	}
	return d.lo + time.Duration(d.rnd.Int63n(int64(d.hi-d.lo)+1))
}

// sleep pauses for the next delay. It fails with errors.ErrCancelled if ctx
// ends first.
func (d *delayer) sleep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Cancelled(err, "Pool", "sleep")
	}

	delay := d.next()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.Cancelled(ctx.Err(), "Pool", "sleep")
	case <-timer.C:
		return nil
	}
}
