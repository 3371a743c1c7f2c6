// Package httputil provides HTTP client utilities for the solver service.
//
// # Retry
//
// [Retry] runs an operation with exponential backoff. Only errors wrapped in
// [RetryableError] are retried; anything else is returned at once:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # JSON requests
//
// [DoJSON] sends a JSON body, decodes a JSON response and classifies the
// outcome: transport failures, 429 and 5xx responses come back as
// [RetryableError], other non-2xx statuses as [*StatusError]. Each request
// reports to the HTTP hooks of pkg/observability.
package httputil
