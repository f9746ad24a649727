package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a transient backend failure (timeout, refused or reset
// connection).
var ErrNetwork = errors.New("network error")

type retryable struct{ err error }

func (e retryable) Error() string { return e.err.Error() }
func (e retryable) Unwrap() error { return e.err }

// Retryable marks err as worth retrying. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryable{err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var r retryable
	return errors.As(err, &r)
}

// Backoff retries transient failures with exponentially growing delays.
type Backoff struct {
	Attempts int
	Initial  time.Duration
}

// DefaultBackoff is used by the Redis backend: three attempts, 0.2s then 0.4s apart.
var DefaultBackoff = Backoff{Attempts: 3, Initial: 200 * time.Millisecond}

// Retry calls fn until it succeeds, fails with an error not marked
// Retryable, or runs out of attempts. Cancelling ctx stops the wait.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	delay := b.Initial
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
