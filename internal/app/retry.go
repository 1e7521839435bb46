package app

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/nyaa-go/internal/domain"
)

// MaxRetryDelay caps the wait between two attempts
const MaxRetryDelay = time.Minute

// ErrSuperseded is returned when a newer query replaced the running one
var ErrSuperseded = errors.New("superseded by a newer query")

// RetryPolicy bounds how a fetch is attempted
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt, doubled after each failure
	Timeout     time.Duration // per attempt; zero disables the deadline
}

// PolicyFromConfig builds the fetch policy from configuration
func PolicyFromConfig(cfg domain.RequestConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Timeout:     cfg.FetchTimeout,
	}
}

// Attempts returns the effective attempt bound, at least one
func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait after the given failed attempt (1-based)
func (p RetryPolicy) Delay(failed int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < failed; i++ {
		if d >= MaxRetryDelay/2 {
			return MaxRetryDelay
		}
		d *= 2
	}
	if d > MaxRetryDelay {
		return MaxRetryDelay
	}
	return d
}

// RetryHooks customize a retry loop. Every field is optional.
type RetryHooks struct {
	// Sleep waits between attempts; defaults to a ctx-aware timer
	Sleep func(ctx context.Context, d time.Duration) error
	// Proceed is checked before every attempt; false aborts with ErrSuperseded
	Proceed func() bool
	// OnRetry is called after a retryable failure, before sleeping
	OnRetry func(failed int, delay time.Duration, err error)
}

// retry runs fn under p. Only errors classified as network errors are
// retried; the returned count is the number of attempts made.
func retry[T any](ctx context.Context, p RetryPolicy, op string, hooks RetryHooks, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	sleep := hooks.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	limit := p.Attempts()

	for attempt := 1; ; attempt++ {
		if hooks.Proceed != nil && !hooks.Proceed() {
			return zero, attempt - 1, ErrSuperseded
		}

		v, err := withDeadline(ctx, op, p.Timeout, fn)
		if err == nil {
			return v, attempt, nil
		}
		if !domain.IsRetryable(err) || attempt >= limit {
			return zero, attempt, err
		}

		delay := p.Delay(attempt)
		if hooks.OnRetry != nil {
			hooks.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, attempt, err
		}
	}
}

// withDeadline runs fn and gives up after timeout even if fn ignores its
// context. An expired deadline yields TimeoutError.
func withDeadline[T any](ctx context.Context, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	inner, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(inner)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(inner.Err(), context.DeadlineExceeded) {
			return zero, &domain.TimeoutError{Op: op, After: timeout}
		}
		return r.v, r.err
	case <-inner.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, &domain.TimeoutError{Op: op, After: timeout}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
