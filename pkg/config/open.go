package config

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/dm3k/dm3k/pkg/cache"
	"github.com/dm3k/dm3k/pkg/solver"
	"github.com/dm3k/dm3k/pkg/store"
)

// OpenCache connects the configured cache backend. The file backend falls
// back to [CacheDir] when no directory is set.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.RedisAddr)
	case BackendFile, "":
		dir := c.Dir
		if dir == "" {
			d, err := CacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
			dir = d
		}
		return cache.NewFileCache(dir)
	}
	return nil, fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Backend)
}

// Keyer returns the cache key builder, scoped by Prefix when one is set.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Prefix)
}

// OpenStore connects the configured document store.
func (s StoreConfig) OpenStore(ctx context.Context) (store.Store, error) {
	switch s.Backend {
	case BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendRedis:
		return store.NewRedisStore(ctx, s.RedisAddr)
	case BackendMongo:
		return store.NewMongoStore(ctx, s.MongoURI, s.MongoDatabase)
	case BackendS3:
		return store.NewS3Store(ctx, store.S3Options{
			Bucket:    s.S3Bucket,
			Prefix:    s.S3Prefix,
			Region:    s.S3Region,
			Endpoint:  s.S3Endpoint,
			AccessKey: s.S3AccessKey,
			SecretKey: s.S3SecretKey,
		})
	case BackendFile, "":
		return store.NewFileStore(s.Dir)
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, s.Backend)
}

// Client builds a solver client from the section.
func (s SolverConfig) Client(logger *log.Logger) *solver.Client {
	c := solver.New(s.URL)
	if s.Timeout.Duration > 0 {
		c.HTTPClient = &http.Client{Timeout: s.Timeout.Duration}
	}
	c.Retries = s.Retries
	if logger != nil {
		c.Logger = logger
	}
	return c
}
