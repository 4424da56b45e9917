// Package redis provides a response cache backed by a Redis server, for
// deployments where several instances should share cached entity reads.
// Failover state never lives here: the cache holds responses only, and every
// operation is best-effort.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gabapcia/chainlens/internal/explorer"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
)

// keyPrefix namespaces cache entries on shared servers.
const keyPrefix = "chainlens:cache:"

// cache implements explorer.Cache on a Redis client.
type cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Compile-time assertion that cache implements the explorer.Cache interface.
var _ explorer.Cache = (*cache)(nil)

// New builds a Redis-backed cache. The connection is verified with a ping so
// a misconfigured address fails at startup, not on the first read.
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &cache{
		client: client,
		ttl:    ttl,
	}, nil
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *cache) Set(ctx context.Context, key string, value []byte) {
	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		logger.Warn(ctx, "cache write failed", "key", key, "error", err)
	}
}

// Close releases the underlying connection pool.
func (c *cache) Close() error {
	return c.client.Close()
}
