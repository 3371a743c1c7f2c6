// Package solver talks to the external DM3K optimization service.
//
// The service accepts a problem document with an added "algorithm" field on
// POST /api/vizdata and answers with a [layout.Solution] whose full_trace
// feeds [layout.Compute]:
//
//	c := solver.New("http://localhost:5000")
//	sol, err := c.Solve(ctx, doc, solver.DefaultAlgorithm)
package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/httputil"
	"github.com/dm3k/dm3k/pkg/layout"
)

var (
	// ErrSolver is returned when the service rejects a request or answers
	// with something that is not a usable solution.
	ErrSolver = errors.New("solver error")

	// ErrUnavailable is returned when the service cannot be reached or keeps
	// failing after all retries.
	ErrUnavailable = errors.New("solver unavailable")
)

const (
	// DefaultAlgorithm is the optimizer that produces visualization traces.
	DefaultAlgorithm = "KnapsackViz"

	DefaultTimeout = 2 * time.Minute
	DefaultRetries = 3

	// RequestIDHeader carries a per-call id the service may log.
	RequestIDHeader = "X-Request-ID"
)

// Client calls the solver service. The zero value is not usable; create
// clients with [New].
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	// RetryDelay is the first backoff step; it doubles on every retry.
	RetryDelay time.Duration
	Logger     *log.Logger
}

// New returns a client for baseURL with default timeout and retries.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Retries:    DefaultRetries,
		RetryDelay: time.Second,
		Logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// request wraps the document with the algorithm selector. Document fields
// are inlined by marshalling both into one object.
type request struct {
	document.Document
	Algorithm string
}

func (r request) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Document)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	alg, _ := json.Marshal(r.Algorithm)
	fields["algorithm"] = alg
	return json.Marshal(fields)
}

// Solve sends d to the service and returns the solution. An empty algorithm
// selects [DefaultAlgorithm].
func (c *Client) Solve(ctx context.Context, d document.Document, algorithm string) (*layout.Solution, error) {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	id := uuid.NewString()
	c.logger().Debug("solving", "algorithm", algorithm, "request_id", id, "url", c.BaseURL)

	var sol layout.Solution
	err := c.do(ctx, http.MethodPost, "/api/vizdata", id, request{Document: d, Algorithm: algorithm}, &sol)
	if err != nil {
		return nil, err
	}
	if err := sol.FullTrace.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolver, err)
	}
	c.logger().Debug("solved", "request_id", id, "entries", len(sol.FullTrace.Resource))
	return &sol, nil
}

// Version returns the service's API version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v struct {
		APIVersion string `json:"api_version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", uuid.NewString(), nil, &v); err != nil {
		return "", err
	}
	if v.APIVersion == "" {
		return "", fmt.Errorf("%w: response has no api_version", ErrSolver)
	}
	return v.APIVersion, nil
}

func (c *Client) do(ctx context.Context, method, path, id string, in, out any) error {
	headers := map[string]string{RequestIDHeader: id}
	attempt := 0
	err := httputil.Retry(ctx, c.Retries, c.RetryDelay, func() error {
		attempt++
		err := httputil.DoJSON(ctx, c.HTTPClient, method, c.BaseURL+path, headers, in, out)
		if err != nil {
			c.logger().Debug("solver request failed", "path", path, "attempt", attempt, "error", err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}

	var se *httputil.StatusError
	if errors.As(err, &se) && !se.Temporary() {
		return fmt.Errorf("%w: %s %s: %w", ErrSolver, method, path, err)
	}
	var re *httputil.RetryableError
	if errors.As(err, &re) {
		return fmt.Errorf("%w: %s %s after %d attempts: %w", ErrUnavailable, method, path, attempt, err)
	}
	return fmt.Errorf("%w: %s %s: %w", ErrSolver, method, path, err)
}

func (c *Client) logger() *log.Logger {
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return c.Logger
}
