package observability

import "sync/atomic"

// slot holds the hooks of one category. The pointer indirection lets
// interface values of different dynamic types share one atomic.Pointer.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) load() T {
	if h := s.p.Load(); h != nil {
		return *h
	}
	return s.def
}

func (s *slot[T]) store(h T) { s.p.Store(&h) }

func (s *slot[T]) reset() { s.p.Store(nil) }

var (
	pipeline = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cache    = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpc    = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks installs h as the pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipeline.store(h)
	}
}

// SetCacheHooks installs h as the cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cache.store(h)
	}
}

// SetHTTPHooks installs h as the solver request hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpc.store(h)
	}
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipeline.load() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cache.load() }

// HTTP returns the installed solver request hooks.
func HTTP() HTTPHooks { return httpc.load() }

// Reset puts the no-op hooks back in place.
func Reset() {
	pipeline.reset()
	cache.reset()
	httpc.reset()
}
