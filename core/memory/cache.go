package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when the key is not cached.
var ErrCacheMiss = errors.New("memory cache miss")

// Cache is the lookaside layer in front of the store. Any other error than
// ErrCacheMiss is treated by the service as a degraded cache, never as a
// request failure.
type Cache interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, payload []byte) error
	Connect(ctx context.Context) error
	Close() error
}

// RedisCache caches memory payloads with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

func (c *RedisCache) Connect(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// cacheKey follows the session/file addressing of the original lookaside
// path; the kind prefix keeps the four streams independent.
func cacheKey(key Key) string {
	return fmt.Sprintf("memory:%s:%s:%s", key.Kind, key.SessionID, key.FileName)
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, error) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, payload []byte) error {
	return c.client.Set(ctx, cacheKey(key), payload, c.ttl).Err()
}
