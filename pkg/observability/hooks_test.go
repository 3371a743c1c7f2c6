package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
	NoopHTTPHooks

	solves, hits, requests atomic.Int64
}

func (h *countingHooks) OnSolveStart(context.Context, string, int)         { h.solves.Add(1) }
func (h *countingHooks) OnCacheHit(context.Context, string)                { h.hits.Add(1) }
func (h *countingHooks) OnRequest(context.Context, string, string, string) { h.requests.Add(1) }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	ctx := context.Background()
	Pipeline().OnSolveComplete(ctx, "KnapsackViz", 12, time.Second, nil)
	Cache().OnCacheSet(ctx, "layout", 512)
	HTTP().OnError(ctx, "POST", "localhost:5000", "/api/vizdata", context.DeadlineExceeded)
}

func TestInstalledHooksReceiveEvents(t *testing.T) {
	h := &countingHooks{}
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
	t.Cleanup(Reset)

	ctx := context.Background()
	Pipeline().OnSolveStart(ctx, "KnapsackViz", 3)
	Cache().OnCacheHit(ctx, "solution")
	Cache().OnCacheMiss(ctx, "diagram")
	HTTP().OnRequest(ctx, "POST", "localhost:5000", "/api/vizdata")

	if h.solves.Load() != 1 || h.hits.Load() != 1 || h.requests.Load() != 1 {
		t.Errorf("solves=%d hits=%d requests=%d, want 1 each",
			h.solves.Load(), h.hits.Load(), h.requests.Load())
	}

	Reset()
	Pipeline().OnSolveStart(ctx, "KnapsackViz", 3)
	if h.solves.Load() != 1 {
		t.Error("hooks still called after Reset")
	}
}

func TestSetNilKeepsCurrentHooks(t *testing.T) {
	h := &countingHooks{}
	SetCacheHooks(h)
	t.Cleanup(Reset)

	SetCacheHooks(nil)
	if Cache() != CacheHooks(h) {
		t.Errorf("Cache() = %T after SetCacheHooks(nil)", Cache())
	}
}

func TestConcurrentSwap(t *testing.T) {
	t.Cleanup(Reset)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					SetPipelineHooks(&countingHooks{})
				} else {
					Pipeline().OnLayoutStart(ctx, "ratio", 4)
				}
			}
		}()
	}
	wg.Wait()
}
