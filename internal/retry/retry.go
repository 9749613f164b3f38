// Package retry provides an explicit retry policy value applied around
// outbound calls: a maximum attempt count plus a backoff function,
// testable in isolation.
package retry

import (
	"context"
	"errors"
	"time"
)

// DefaultMaxAttempts bounds retries when the policy does not say
// otherwise.
const DefaultMaxAttempts = 3

// BackoffFunc returns the delay before the given retry attempt.
// Attempt numbering starts at 1 for the first retry.
type BackoffFunc func(attempt int) time.Duration

// Policy describes how an outbound call is retried. The zero value
// retries DefaultMaxAttempts times with no delay.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the
	// first. Values below 1 mean DefaultMaxAttempts.
	MaxAttempts int

	// Backoff computes the delay before each retry. Nil means no
	// delay.
	Backoff BackoffFunc
}

// ExponentialBackoff doubles the delay on each retry, starting at base
// and never exceeding max.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := base << (attempt - 1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops retrying immediately. Use for
// malformed-input failures where another attempt cannot succeed.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do invokes fn until it succeeds, returns a permanent error, the
// attempts are exhausted, or ctx is done. The last error is returned,
// unwrapped from any Permanent marker.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}

		if attempt == attempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return err
}
