package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// maxDelay caps a single backoff wait, including server-requested ones.
const maxDelay = 30 * time.Second

// RetryableError marks a transient failure for [Retry]. After, when
// positive, is the wait the server asked for through Retry-After.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry calls fn until it succeeds, returns an error not wrapped in
// [RetryableError], or has been called attempts times. The wait starts at
// delay and doubles after every failure; a longer Retry-After from the
// server wins. The last error is returned, or ctx.Err() if ctx ends while
// waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		var re *RetryableError
		if !errors.As(err, &re) || i == attempts {
			return err
		}

		wait := min(max(delay, re.After), maxDelay)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
}

// retryAfter parses a Retry-After header given in seconds. HTTP dates are
// not used by the solver service and yield zero.
func retryAfter(h http.Header) time.Duration {
	s, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || s <= 0 {
		return 0
	}
	return time.Duration(s) * time.Second
}
