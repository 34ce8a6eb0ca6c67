package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4maggio/Kinderkuchen/internal/adapters/logging"
	"github.com/4maggio/Kinderkuchen/internal/domain/retry"
)

func policy(attempts int) retry.Policy {
	return retry.Policy{
		Name:     "test action",
		Attempts: attempts,
		Delay:    time.Millisecond,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	calls := 0
	result := retry.Do(context.Background(), logging.NewNopLogger(), policy(3), func(context.Context) error {
		calls++
		return nil
	})

	require.True(t, result.Success())
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
}

func TestDo_FailsTwiceThenSucceeds(t *testing.T) {
	t.Parallel()

	calls := 0
	result := retry.Do(context.Background(), logging.NewNopLogger(), policy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.True(t, result.Success())
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	t.Parallel()

	calls := 0
	failure := errors.New("mirror unreachable")
	result := retry.Do(context.Background(), logging.NewNopLogger(), policy(3), func(context.Context) error {
		calls++
		return failure
	})

	require.False(t, result.Success())
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, calls, "must stop after the final attempt, never more")
	assert.ErrorIs(t, result.Err, failure)
}

func TestDo_BetweenRunsBeforeEachRetry(t *testing.T) {
	t.Parallel()

	between := 0
	p := policy(3)
	p.Between = func(context.Context) { between++ }

	result := retry.Do(context.Background(), logging.NewNopLogger(), p, func(context.Context) error {
		return errors.New("always fails")
	})

	require.False(t, result.Success())
	// Two retries follow the first attempt; the hook runs before each.
	assert.Equal(t, 2, between)
}

func TestDo_BetweenNotRunAfterFinalAttempt(t *testing.T) {
	t.Parallel()

	between := 0
	p := policy(1)
	p.Between = func(context.Context) { between++ }

	result := retry.Do(context.Background(), logging.NewNopLogger(), p, func(context.Context) error {
		return errors.New("fails")
	})

	require.False(t, result.Success())
	assert.Zero(t, between)
}

func TestDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	result := retry.Do(context.Background(), logging.NewNopLogger(), policy(0), func(context.Context) error {
		calls++
		return nil
	})

	require.True(t, result.Success())
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	p := retry.Policy{Name: "test action", Attempts: 3, Delay: time.Minute}
	result := retry.Do(ctx, logging.NewNopLogger(), p, func(context.Context) error {
		cancel()
		return errors.New("fails")
	})

	require.False(t, result.Success())
	assert.Equal(t, 1, result.Attempts)
	assert.ErrorIs(t, result.Err, context.Canceled)
}
