package infra

import (
	"context"
	"fmt"
	"math"
	"time"
)

// RetryPolicy bounds how often an upstream call is attempted.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy is used for every upstream call unless a category
// overrides it.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:   3,
	BaseDelay:     600 * time.Millisecond,
	BackoffFactor: 1.6,
}

// WithAttempts returns a copy of p with a different attempt budget.
func (p RetryPolicy) WithAttempts(n int) RetryPolicy {
	p.MaxAttempts = n
	return p
}

// Delay returns the sleep after the given zero-based failed attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(math.Round(float64(p.BaseDelay) * math.Pow(factor, float64(attempt))))
}

// Retry invokes fn until it succeeds or the attempt budget is spent. Every
// failure is treated as transient. The returned error is the last failure.
// Only the calling goroutine sleeps; a cancelled ctx stops waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry interrupted after %d attempts: %w", attempt+1, err)
		case <-timer.C:
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

// RetryValue is Retry for calls that produce a value.
func RetryValue[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Retry(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
