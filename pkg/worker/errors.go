package worker

import (
	"fmt"

	"github.com/c360/boundedring/errors"
)

// Sentinel errors for pool operations. Each wraps the matching base sentinel
// so callers can classify them with the errors package.
var (
	// ErrPoolNotStarted indicates Wait was called before Start
	ErrPoolNotStarted = fmt.Errorf("worker pool: %w", errors.ErrNotStarted)

	// ErrPoolAlreadyStarted indicates Start() was called on an already-started pool
	ErrPoolAlreadyStarted = fmt.Errorf("worker pool: %w", errors.ErrAlreadyStarted)

	// ErrNilBuffer indicates no buffer was provided
	ErrNilBuffer = fmt.Errorf("buffer: %w", errors.ErrMissingConfig)

	// ErrNilItemFunc indicates a nil item function was provided
	ErrNilItemFunc = fmt.Errorf("item function: %w", errors.ErrMissingConfig)

	// ErrStopTimeout indicates the pool didn't stop within the timeout
	ErrStopTimeout = fmt.Errorf("timeout waiting for workers to stop: %w", errors.ErrShuttingDown)
)
