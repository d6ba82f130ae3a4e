package service

import (
	"context"
	"errors"
	"time"

	"alcyxob/workout-engine/internal/repository"
)

// retryPolicy bounds the retries around the persistence writes that must not
// be lost silently: the two terminal tracker transitions, the blueprint
// upsert and the cache-usage touch. The generation pipeline itself is never
// retried; a pipeline failure is surfaced once.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func newRetryPolicy(attempts int, backoff time.Duration) retryPolicy {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return retryPolicy{attempts: attempts, backoff: backoff}
}

// run invokes fn up to p.attempts times with linearly growing backoff.
// ErrNotFound is never retried: the row is missing, not the connection.
func (p retryPolicy) run(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, repository.ErrNotFound) || errors.Is(lastErr, repository.ErrDuplicateKey) {
			return lastErr
		}
		if attempt < p.attempts {
			wait := time.Duration(attempt) * p.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}
