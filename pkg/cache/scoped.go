package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) SolutionKey(docHash string, opts SolutionKeyOpts) string {
	return k.prefix + k.inner.SolutionKey(docHash, opts)
}

func (k *ScopedKeyer) LayoutKey(docHash, traceHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, traceHash, opts)
}

func (k *ScopedKeyer) DiagramKey(docHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(docHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
