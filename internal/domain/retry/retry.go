// Package retry runs actions with bounded, fixed-delay retries.
package retry

import (
	"context"
	"time"

	"github.com/4maggio/Kinderkuchen/internal/ports"
)

// Action is a unit of work that may fail transiently.
type Action func(ctx context.Context) error

// Policy bounds the retry behavior for one class of action.
type Policy struct {
	// Name labels the action in log output.
	Name string
	// Attempts is the total number of attempts, including the first.
	Attempts int
	// Delay is the fixed pause between attempts. No exponential growth.
	Delay time.Duration
	// Between, if set, runs after a failed attempt and before the next one.
	// Package installs use it to clean the cache and refresh the index so
	// transient mirror failures do not poison the next attempt.
	Between func(ctx context.Context)
}

// Result reports how a retried action ended.
type Result struct {
	Attempts int
	Err      error
}

// Success reports whether the action eventually succeeded.
func (r Result) Success() bool {
	return r.Err == nil
}

// Do runs the action under the policy. It returns after the first success
// or once the attempt budget is exhausted, never more. Every failed attempt
// is logged with its attempt number.
func Do(ctx context.Context, logger ports.Logger, policy Policy, action Action) Result {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = action(ctx)
		if lastErr == nil {
			return Result{Attempts: attempt}
		}

		logger.Warn(ctx, "attempt failed",
			ports.F("action", policy.Name),
			ports.F("attempt", attempt),
			ports.F("of", attempts),
			ports.F("error", lastErr))

		if attempt == attempts {
			break
		}

		if policy.Between != nil {
			policy.Between(ctx)
		}

		select {
		case <-time.After(policy.Delay):
		case <-ctx.Done():
			return Result{Attempts: attempt, Err: ctx.Err()}
		}
	}

	return Result{Attempts: attempts, Err: lastErr}
}
