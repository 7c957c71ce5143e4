package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v57/github"
)

// Backoff bounds for rate-limited calls; variables so tests can shrink them
var (
	retryBaseDelay = 2 * time.Second
	retryMaxDelay  = 32 * time.Second
)

// newRateLimitBackOff doubles the delay from retryBaseDelay up to retryMaxDelay,
// with up to 50% jitter either way
func newRateLimitBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryBaseDelay
	b.MaxInterval = retryMaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// RetryWithBackoff executes an operation with exponential backoff retry logic.
// Only rate limit errors are retried.
// Returns (retryAttempts, error) where retryAttempts is the number of retries performed
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int) (int, error) {
	if maxRetries <= 0 {
		return 0, fmt.Errorf("max retries (%d) must be positive", maxRetries)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newRateLimitBackOff(), uint64(maxRetries-1)), ctx)

	retryAttempts := 0
	err := backoff.RetryNotify(func() error {
		err := operation()
		if err != nil && !isRateLimitError(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(error, time.Duration) {
		retryAttempts++
	})

	if err != nil && isRateLimitError(err) {
		return retryAttempts, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
	}
	return retryAttempts, err
}

// isRateLimitError checks if an error is a GitHub API rate limit error
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var abuseRateLimitErr *github.AbuseRateLimitError
	return errors.As(err, &abuseRateLimitErr)
}
