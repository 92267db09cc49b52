package ai

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a primary remote call when the caller does not set one.
const DefaultTimeout = 10 * time.Second

// Tier names the source of a result.
type Tier string

const (
	TierPrimary  Tier = "primary"
	TierFallback Tier = "fallback"
)

// Outcome is the result of RunWithFallback. Err holds the primary failure when
// the fallback tier was used.
type Outcome[T any] struct {
	Value T
	Tier  Tier
	Err   error
}

// RunWithFallback runs primary under timeout and returns its value, or the
// deterministic fallback value when primary fails, times out, panics or the
// caller's context is done. It never waits longer than timeout for primary.
func RunWithFallback[T any](ctx context.Context, timeout time.Duration, primary func(context.Context) (T, error), fallback func() T) Outcome[T] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}

	// buffered so an abandoned primary never blocks on send
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &RemoteServiceError{Op: "primary", Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		value, err := primary(callCtx)
		done <- result{value: value, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return Outcome[T]{Value: res.value, Tier: TierPrimary}
		}
		return Outcome[T]{Value: fallback(), Tier: TierFallback, Err: res.err}
	case <-callCtx.Done():
		return Outcome[T]{Value: fallback(), Tier: TierFallback, Err: callCtx.Err()}
	}
}
