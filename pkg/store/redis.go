package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dm3k/dm3k/pkg/httputil"
)

// ErrUnavailable is returned when a remote backend cannot be reached.
var ErrUnavailable = errors.New("store backend unreachable")

// DefaultRedisPrefix namespaces every key written by [RedisStore].
const DefaultRedisPrefix = "dm3k:doc:"

const (
	redisAttempts = 3
	redisDelay    = 200 * time.Millisecond
)

// RedisStore keeps each record as a JSON string and indexes IDs in a sorted
// set scored by update time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, addr, err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: DefaultRedisPrefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }
func (s *RedisStore) index() string        { return s.prefix + "index" }

func (s *RedisStore) Put(ctx context.Context, rec Record) (string, error) {
	var prev *Record
	if rec.ID != "" {
		p, err := s.Get(ctx, rec.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		prev = p
	}
	rec, err := stamp(rec, prev)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	err = s.retry(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.key(rec.ID), data, 0)
			p.ZAdd(ctx, s.index(), redis.Z{Score: float64(rec.UpdatedAt.UnixNano()), Member: rec.ID})
			return nil
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var data []byte
	err := s.retry(ctx, func() error {
		v, err := s.client.Get(ctx, s.key(id)).Bytes()
		data = v
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	var ids []string
	err := s.retry(ctx, func() error {
		v, err := s.client.ZRevRange(ctx, s.index(), 0, -1).Result()
		ids = v
		return err
	})
	if err != nil {
		return nil, err
	}

	out := []Summary{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	var values []any
	err = s.retry(ctx, func() error {
		v, err := s.client.MGet(ctx, keys...).Result()
		values = v
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			continue
		}
		out = append(out, rec.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	var removed int64
	err := s.retry(ctx, func() error {
		var del *redis.IntCmd
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			del = p.Del(ctx, s.key(id))
			p.ZRem(ctx, s.index(), id)
			return nil
		})
		if err == nil {
			removed = del.Val()
		}
		return err
	})
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// retry runs fn with backoff, retrying only network failures.
func (s *RedisStore) retry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, redisAttempts, redisDelay, func() error {
		err := fn()
		var ne net.Error
		if errors.As(err, &ne) {
			return &httputil.RetryableError{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
		}
		return err
	})
}

var _ Store = (*RedisStore)(nil)
