package usecasees

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit, injectable retry description: attempts,
// base delay, jitter fraction and the predicate deciding what retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
	RetryIf     func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Jitter:      0.2,
		RetryIf:     Retryable,
	}
}

// Delay returns the backoff before the given attempt (1-based):
// BaseDelay * 2^(attempt-1), capped at MaxDelay, with +/- Jitter applied.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	max := p.MaxDelay
	if max <= 0 {
		max = 10 * time.Second
	}

	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			wait = max
			break
		}
	}

	if p.Jitter <= 0 {
		return wait
	}

	jitter := p.Jitter
	if jitter > 1 {
		jitter = 1
	}

	delta := float64(wait) * jitter

	return wait - time.Duration(delta) + time.Duration(rand.Float64()*2*delta)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempt budget runs out. Backoff sleeps respect ctx cancellation.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = Retryable
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if !retryIf(err) || attempt == attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt)):
		}
	}

	return err
}
