package marketdata

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy describes bounded exponential backoff for provider calls.
// Injected rather than hard-coded so tests can run with zero delay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy matches the provider quota budget: 3 attempts,
// 2s base delay, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second, Multiplier: 2.0}
}

// ZeroDelayPolicy retries immediately; for tests.
func ZeroDelayPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Multiplier: 1.0}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts with
// exponential backoff. Context cancellation aborts the wait.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * p.Multiplier)
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}
