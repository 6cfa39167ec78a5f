// internal/common/retry/retry.go
package retry

import (
	"context"
	"time"
)

// Policy controls retry behavior for an operation. The delay before attempt
// n (1-based) is BaseDelay * 2^(n-1).
type Policy struct {
	MaxRetries  int
	BaseDelay   time.Duration
	IsRetryable func(error) bool
}

// Do runs op up to 1+MaxRetries times with exponential backoff between
// attempts. It stops early when the context is done or IsRetryable (when
// set) rejects the error. The last error is returned after exhaustion.
func Do(ctx context.Context, policy Policy, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := policy.BaseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if policy.IsRetryable != nil && !policy.IsRetryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
