package buffer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. It is always enabled.
type Statistics struct {
	// Atomic counters for thread-safe updates
	puts           int64
	takes          int64
	blockedPuts    int64
	blockedTakes   int64
	cancelledPuts  int64
	cancelledTakes int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Put records a completed put. blocked reports whether it had to wait.
func (s *Statistics) Put(blocked bool) {
	atomic.AddInt64(&s.puts, 1)
	if blocked {
		atomic.AddInt64(&s.blockedPuts, 1)
	}
}

// Take records a completed take. blocked reports whether it had to wait.
func (s *Statistics) Take(blocked bool) {
	atomic.AddInt64(&s.takes, 1)
	if blocked {
		atomic.AddInt64(&s.blockedTakes, 1)
	}
}

// Cancel records an operation that gave up because its context ended.
func (s *Statistics) Cancel(op string) {
	switch op {
	case opPut:
		atomic.AddInt64(&s.cancelledPuts, 1)
	case opTake:
		atomic.AddInt64(&s.cancelledTakes, 1)
	}
}

// UpdateSize updates the current buffer size and the high-water mark.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Puts returns the total number of completed puts.
func (s *Statistics) Puts() int64 {
	return atomic.LoadInt64(&s.puts)
}

// Takes returns the total number of completed takes.
func (s *Statistics) Takes() int64 {
	return atomic.LoadInt64(&s.takes)
}

// BlockedPuts returns how many completed puts had to wait for space.
func (s *Statistics) BlockedPuts() int64 {
	return atomic.LoadInt64(&s.blockedPuts)
}

// BlockedTakes returns how many completed takes had to wait for an item.
func (s *Statistics) BlockedTakes() int64 {
	return atomic.LoadInt64(&s.blockedTakes)
}

// CancelledPuts returns the number of puts abandoned on cancellation.
func (s *Statistics) CancelledPuts() int64 {
	return atomic.LoadInt64(&s.cancelledPuts)
}

// CancelledTakes returns the number of takes abandoned on cancellation.
func (s *Statistics) CancelledTakes() int64 {
	return atomic.LoadInt64(&s.cancelledTakes)
}

// CurrentSize returns the size recorded by the most recent operation.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the maximum number of items the buffer has held.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// Throughput returns the average number of puts per second.
func (s *Statistics) Throughput() float64 {
	return s.rate(s.Puts())
}

// TakeThroughput returns the average number of takes per second.
func (s *Statistics) TakeThroughput() float64 {
	return s.rate(s.Takes())
}

func (s *Statistics) rate(n int64) float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(n) / elapsed.Seconds()
}

// Utilization returns the current buffer utilization (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Uptime returns how long the buffer has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.puts, 0)
	atomic.StoreInt64(&s.takes, 0)
	atomic.StoreInt64(&s.blockedPuts, 0)
	atomic.StoreInt64(&s.blockedTakes, 0)
	atomic.StoreInt64(&s.cancelledPuts, 0)
	atomic.StoreInt64(&s.cancelledTakes, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.maxSize = 0
	s.mu.Unlock()
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Puts           int64         `json:"puts"`
	Takes          int64         `json:"takes"`
	BlockedPuts    int64         `json:"blocked_puts"`
	BlockedTakes   int64         `json:"blocked_takes"`
	CancelledPuts  int64         `json:"cancelled_puts"`
	CancelledTakes int64         `json:"cancelled_takes"`
	CurrentSize    int64         `json:"current_size"`
	MaxSize        int64         `json:"max_size"`
	Throughput     float64       `json:"throughput"`
	TakeThroughput float64       `json:"take_throughput"`
	Uptime         time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Puts:           s.Puts(),
		Takes:          s.Takes(),
		BlockedPuts:    s.BlockedPuts(),
		BlockedTakes:   s.BlockedTakes(),
		CancelledPuts:  s.CancelledPuts(),
		CancelledTakes: s.CancelledTakes(),
		CurrentSize:    s.CurrentSize(),
		MaxSize:        s.MaxSize(),
		Throughput:     s.Throughput(),
		TakeThroughput: s.TakeThroughput(),
		Uptime:         s.Uptime(),
	}
}
