// Package strategy provides the execution strategies used for teardown
// operations: fail-fast (run once, propagate) and bounded-retry (best
// effort, swallow after a capped number of attempts).
package strategy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jdziat/simple-task-workers/pkg/security"
)

// Strategy executes an operation according to a failure policy.
type Strategy interface {
	Execute(op func() error) error
}

// FailFast runs the operation once and propagates any failure to the caller.
type FailFast struct{}

// Execute invokes op once.
func (FailFast) Execute(op func() error) error {
	return op()
}

// DefaultMaxAttempts is the attempt cap used when BoundedRetry is not configured.
const DefaultMaxAttempts = 5

// BoundedRetry runs the operation up to MaxAttempts times, swallowing each
// failure. If every attempt fails the final error is swallowed too and nil
// is returned, so best-effort teardown can never block shutdown. Exhaustion
// is logged at Warn.
type BoundedRetry struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Values are clamped to [1, security.MaxAttempts]; zero means DefaultMaxAttempts.
	MaxAttempts int

	// Delay is an optional fixed pause between attempts.
	Delay time.Duration

	// Logger receives the exhaustion warning. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewBoundedRetry creates a BoundedRetry with the given attempt cap.
func NewBoundedRetry(maxAttempts int) BoundedRetry {
	return BoundedRetry{MaxAttempts: security.ClampAttempts(maxAttempts)}
}

// DefaultTeardown is the strategy used for releasing worker resources
// during Dispose.
func DefaultTeardown() BoundedRetry {
	return BoundedRetry{MaxAttempts: DefaultMaxAttempts}
}

// Execute invokes op until it succeeds or attempts are exhausted.
// It always returns nil: failures are swallowed, not propagated.
func (r BoundedRetry) Execute(op func() error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	attempts = security.ClampAttempts(attempts)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		// Context errors mean the surrounding teardown is itself being
		// cancelled; retrying cannot help.
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			break
		}

		if r.Delay > 0 && attempt < attempts {
			time.Sleep(r.Delay)
		}
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("teardown operation failed after all attempts", "attempts", attempts, "error", lastErr)
	return nil
}
