package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces termfix keys inside a shared Redis database.
const DefaultRedisPrefix = "termfix:"

// scanCount is the COUNT hint passed to SCAN.
const scanCount = 500

// RedisStore is a [Store] backed by Redis, letting several batch processes
// share one cache. Capacity is left to Redis (maxmemory policy) and to the
// per-entry TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

// NewRedisStore returns a store using client. A zero ttl keeps entries until
// they are evicted by Redis.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: DefaultRedisPrefix}
}

// WithPrefix returns a copy of s that stores keys under prefix.
func (s *RedisStore) WithPrefix(prefix string) *RedisStore {
	cp := *s
	cp.prefix = prefix
	return &cp
}

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("cache: redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("cache: decode entry %q: %w", key, err)
	}
	return e, nil
}

// Set implements [Store].
func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: encode entry %q: %w", e.Key, err)
	}
	if err := s.client.Set(ctx, s.prefix+e.Key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Clear implements [Store]. Only keys under the store prefix are removed.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.scan(ctx, func(keys []string) error {
		if len(keys) == 0 {
			return nil
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache: redis del: %w", err)
		}
		return nil
	})
}

// Count implements [Store].
func (s *RedisStore) Count(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	err := s.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			counts[kindOf(strings.TrimPrefix(k, s.prefix))]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// scan walks every key under the prefix and hands each SCAN page to fn.
func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanCount).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if err := fn(keys); err != nil {
			return err
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

var _ Store = (*RedisStore)(nil)
