package engine

import (
	"context"
	"fmt"
	"time"
)

// WithRetry runs fn up to attempts times, sleeping delay between attempts.
// Only retryable errors (lock contention, version conflicts) are retried;
// anything else returns immediately. The final error is wrapped so callers
// can still inspect the cause.
func WithRetry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = fn(ctx)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", attempts, err)
}
