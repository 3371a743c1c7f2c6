package cache

import (
	"context"
	"errors"
	"time"

	"github.com/dm3k/dm3k/pkg/httputil"
)

// ErrNetwork is returned when a remote cache backend cannot be reached.
var ErrNetwork = errors.New("cache backend unreachable")

// retryDelay is the first backoff step of [RetryWithBackoff].
var retryDelay = 200 * time.Millisecond

// Retryable marks err as transient so that [RetryWithBackoff] tries again.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &httputil.RetryableError{Err: err}
}

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	var re *httputil.RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn up to 3 times, retrying only errors marked with
// [Retryable].
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, 3, retryDelay, fn)
}
