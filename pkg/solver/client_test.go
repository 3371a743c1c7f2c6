package solver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dm3k/dm3k/pkg/document"
	"github.com/dm3k/dm3k/pkg/layout"
)

func testClient(url string) *Client {
	c := New(url)
	c.RetryDelay = time.Millisecond
	return c
}

var sampleTrace = layout.Trace{
	Resource:   []string{"small"},
	Activity:   []string{"book"},
	BudgetUsed: [][]float64{{2}},
	Selected:   []int{1},
}

func TestSolve(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/vizdata" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get(RequestIDHeader) == "" {
			http.Error(w, "missing request id", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(layout.Solution{FullTrace: sampleTrace})
	}))
	defer srv.Close()

	d := document.Document{ResourceClasses: []document.ResourceClass{{ClassName: "Backpack"}}}
	sol, err := testClient(srv.URL).Solve(context.Background(), d, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.FullTrace.Resource) != 1 || sol.FullTrace.Activity[0] != "book" {
		t.Errorf("trace = %+v", sol.FullTrace)
	}
	if string(got["algorithm"]) != `"KnapsackViz"` {
		t.Errorf("algorithm = %s, want KnapsackViz", got["algorithm"])
	}
	if _, ok := got["resourceClasses"]; !ok {
		t.Error("document fields were not inlined")
	}
}

func TestSolveRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(layout.Solution{FullTrace: sampleTrace})
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Solve(context.Background(), document.Document{}, ""); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "bad doc", http.StatusBadRequest) },
			want:    ErrSolver,
		},
		{
			name:    "always failing",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "down", http.StatusInternalServerError) },
			want:    ErrUnavailable,
		},
		{
			name:    "empty trace",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"full_trace":{}}`)) },
			want:    ErrSolver,
		},
		{
			name:    "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`<html>`)) },
			want:    ErrSolver,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := testClient(srv.URL).Solve(context.Background(), document.Document{}, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/version" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"api_version": "1.0"}`))
	}))
	defer srv.Close()

	v, err := testClient(srv.URL + "/").Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "1.0" {
		t.Errorf("Version() = %q, want 1.0", v)
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := testClient(url).Version(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
