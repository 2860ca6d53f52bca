package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gsabyss/internal/logging"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	Attempts int           // Total attempts, including the first
	Delay    time.Duration // Fixed pause between attempts
}

// AssetRetry is the policy for icons and other images.
func AssetRetry() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: 2 * time.Second}
}

// DataRetry is the policy for the dataset and the statistics payload.
func DataRetry() RetryConfig {
	return RetryConfig{Attempts: 3, Delay: 3 * time.Second}
}

// ErrRetriesExhausted indicates all attempts failed. The last attempt's error is
// wrapped alongside it.
var ErrRetriesExhausted = errors.New("retries exhausted")

// WithRetry runs fn until it succeeds, the attempts run out, or ctx ends.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := config.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		v, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logging.Fetch("Retry succeeded for %s on attempt %d", operation, attempt+1)
			}
			return v, nil
		}

		lastErr = err
		logging.Get(logging.CategoryFetch).Warn("Attempt %d/%d for %s failed: %v", attempt+1, attempts, operation, err)

		// Don't sleep after the last attempt
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(config.Delay):
			}
		}
	}

	return zero, fmt.Errorf("%w for %s: %w", ErrRetriesExhausted, operation, lastErr)
}
