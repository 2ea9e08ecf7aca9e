package usecasees

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RetryPolicy(t *testing.T) {
	t.Run("delay grows exponentially within jitter bounds", func(t *testing.T) {
		policy := RetryPolicy{
			BaseDelay: 100 * time.Millisecond,
			MaxDelay:  time.Second,
			Jitter:    0.2,
		}

		for attempt, want := range map[int]time.Duration{
			1: 100 * time.Millisecond,
			2: 200 * time.Millisecond,
			3: 400 * time.Millisecond,
			6: time.Second,
		} {
			got := policy.Delay(attempt)

			low := time.Duration(float64(want) * 0.8)
			high := time.Duration(float64(want) * 1.2)

			assert.GreaterOrEqual(t, got, low, "attempt %d", attempt)
			assert.LessOrEqual(t, got, high, "attempt %d", attempt)
		}
	})

	t.Run("delay is capped at max", func(t *testing.T) {
		policy := RetryPolicy{
			BaseDelay: 100 * time.Millisecond,
			MaxDelay:  time.Second,
		}

		assert.Equal(t, time.Second, policy.Delay(30))
	})

	t.Run("transient errors are retried until success", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		policy.BaseDelay = time.Millisecond
		policy.MaxAttempts = 3

		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.Wrap(ErrTransientNetwork, "connection reset")
			}

			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("invalid requests fail fast", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		policy.BaseDelay = time.Millisecond

		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			return &VenueError{Venue: "phemex", Code: 11012, Msg: "bad price", Class: ErrInvalidRequest}
		})

		assert.True(t, IsInvalidRequest(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("budget exhaustion returns the last error", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		policy.BaseDelay = time.Millisecond
		policy.MaxAttempts = 2

		calls := 0
		err := policy.Do(context.Background(), func() error {
			calls++
			return errors.Wrap(ErrRateLimited, "slow down")
		})

		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled context stops the backoff sleep", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		policy.BaseDelay = time.Minute

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- policy.Do(ctx, func() error {
				return errors.Wrap(ErrTransientNetwork, "timeout")
			})
		}()

		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("retry loop ignored cancellation")
		}
	})
}
