// Package lru provides an in-process response cache backed by an expiring
// LRU. It is the default cache when no external store is configured.
package lru

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gabapcia/chainlens/internal/explorer"
)

// cache implements explorer.Cache on an expirable LRU.
type cache struct {
	store *expirable.LRU[string, []byte]
}

// Compile-time assertion that cache implements the explorer.Cache interface.
var _ explorer.Cache = (*cache)(nil)

// New builds an in-process cache holding up to size entries for ttl each.
func New(size int, ttl time.Duration) *cache {
	return &cache{
		store: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, bool) {
	return c.store.Get(key)
}

func (c *cache) Set(ctx context.Context, key string, value []byte) {
	c.store.Add(key, value)
}
