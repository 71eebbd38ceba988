package util

import (
	"context"
	"errors"
	"time"
)

// RetryBaseDelay is the pause before the second attempt. Every further
// attempt doubles it, capped at RetryMaxDelay.
var (
	RetryBaseDelay = 500 * time.Millisecond
	RetryMaxDelay  = 10 * time.Second
)

func backoff(attempt int) time.Duration {
	d := RetryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= RetryMaxDelay {
			return RetryMaxDelay
		}
	}
	return d
}

func wait(ctx context.Context, attempt int) error {
	d := backoff(attempt)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// RetryWithContext calls fn up to maxTries times until it returns nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
// Returns ctx.Err() if the context is canceled, otherwise returns the last error.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if i > 0 {
			if err := wait(ctx, i); err != nil {
				return zero, err
			}
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		// A deadline hit by ctx itself ends the loop, a per-attempt timeout
		// inside fn does not.
		if isContextErr(err) && ctx.Err() != nil {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// RetryErrWithContext is RetryWithContext for functions without a result.
func RetryErrWithContext(ctx context.Context, maxTries int, fn func(context.Context) error) error {
	_, err := RetryWithContext(ctx, maxTries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
