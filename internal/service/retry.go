package service

import (
	"context"
	"errors"
	"time"

	"invosight/internal/capability"
)

// RetryPolicy retries an operation on transient failures with exponential
// backoff. Rate-limited calls wait out the provider's Retry-After instead
// of the computed backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy suits provider calls made inside an HTTP request.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Do runs op until it succeeds, fails permanently, or attempts run out.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !capability.IsTransient(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := delay
		var rlErr *capability.RateLimitError
		if errors.As(lastErr, &rlErr) && rlErr.RetryAfter > 0 {
			wait = rlErr.RetryAfter
		}
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
	return lastErr
}
