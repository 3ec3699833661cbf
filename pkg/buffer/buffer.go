// Package buffer provides a generic, fixed-capacity ring buffer with blocking
// backpressure in both directions.
//
// Two synchronization strategies implement the same Buffer contract:
//   - MonitorBuffer: one mutex with "not full"/"not empty" conditions and FIFO admission
//   - PermitBuffer: empty-slot, filled-slot and mutex permits (counting semaphores)
//
// Statistics are always collected. Prometheus metrics are enabled via WithMetrics().
package buffer

import (
	"context"
	"fmt"
	"strings"

	"github.com/c360/boundedring/errors"
)

// Buffer is the blocking bounded buffer contract shared by all strategies.
type Buffer[T any] interface {
	// Put blocks while the buffer is full, then stores item.
	// If ctx ends first it returns an error matching errors.ErrCancelled
	// and the buffer is left exactly as it was.
	Put(ctx context.Context, item T) error

	// Take blocks while the buffer is empty, then removes and returns the
	// oldest item. Cancellation behaves as in Put.
	Take(ctx context.Context) (T, error)

	// Size returns the number of stored items at the instant of the call.
	// The value is advisory under concurrent access.
	Size() int

	// Capacity returns the fixed capacity.
	Capacity() int

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics
}

// Strategy selects the synchronization mechanism behind a Buffer.
type Strategy int

const (
	// StrategyMonitor uses a mutex with condition variables.
	StrategyMonitor Strategy = iota

	// StrategyPermit uses three counting permits.
	StrategyPermit
)

// String returns a human-readable representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyMonitor:
		return "monitor"
	case StrategyPermit:
		return "permit"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a strategy name (case-insensitive) into a Strategy.
// "semaphore" is accepted as an alias for "permit".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "monitor", "":
		return StrategyMonitor, nil
	case "permit", "semaphore":
		return StrategyPermit, nil
	default:
		return 0, errors.WrapInvalid(
			fmt.Errorf("%w: unknown strategy %q", errors.ErrInvalidConfig, name),
			"Buffer", "ParseStrategy", "parse strategy")
	}
}

// Strategies lists every available strategy, in declaration order.
func Strategies() []Strategy {
	return []Strategy{StrategyMonitor, StrategyPermit}
}

// New creates a buffer with the given capacity using the strategy chosen by
// WithStrategy (monitor by default). It fails with errors.ErrInvalidCapacity
// when capacity is not positive.
func New[T any](capacity int, options ...Option) (Buffer[T], error) {
	opts := applyOptions(options...)

	switch opts.strategy {
	case StrategyMonitor:
		return newMonitorBuffer[T](capacity, opts)
	case StrategyPermit:
		return newPermitBuffer[T](capacity, opts)
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unknown strategy %d", errors.ErrInvalidConfig, opts.strategy),
			"Buffer", "New", "select strategy")
	}
}

// NewMonitorBuffer creates a monitor-based buffer. Any WithStrategy option is ignored.
func NewMonitorBuffer[T any](capacity int, options ...Option) (*MonitorBuffer[T], error) {
	return newMonitorBuffer[T](capacity, applyOptions(options...))
}

// NewPermitBuffer creates a permit-based buffer. Any WithStrategy option is ignored.
func NewPermitBuffer[T any](capacity int, options ...Option) (*PermitBuffer[T], error) {
	return newPermitBuffer[T](capacity, applyOptions(options...))
}

func validateCapacity(capacity int, component string) error {
	if capacity <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: got %d", errors.ErrInvalidCapacity, capacity),
			component, "New", "validate capacity")
	}
	return nil
}

// operation labels used by statistics and metrics
const (
	opPut  = "put"
	opTake = "take"
)

// instruments bundles the always-on statistics with optional metrics so both
// strategies record events the same way.
type instruments struct {
	stats   *Statistics
	metrics *bufferMetrics
}

func newInstruments(opts *bufferOptions, component string) (instruments, error) {
	in := instruments{stats: NewStatistics()}

	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		m, err := newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return instruments{}, errors.WrapTransient(err, component, "New", "metrics registration")
		}
		in.metrics = m
	}
	return in, nil
}

func (in instruments) put(size, capacity int, blocked bool) {
	in.stats.Put(blocked)
	in.stats.UpdateSize(int64(size))
	if in.metrics != nil {
		in.metrics.recordPut(size, capacity)
	}
}

func (in instruments) take(size, capacity int, blocked bool) {
	in.stats.Take(blocked)
	in.stats.UpdateSize(int64(size))
	if in.metrics != nil {
		in.metrics.recordTake(size, capacity)
	}
}

func (in instruments) cancelled(op string) {
	in.stats.Cancel(op)
	if in.metrics != nil {
		in.metrics.recordCancel(op)
	}
}

func (in instruments) waited(op string, seconds float64) {
	if in.metrics != nil {
		in.metrics.observeWait(op, seconds)
	}
}
