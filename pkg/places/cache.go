package places

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ttlCache is a thin wrapper over an expirable LRU keyed by the exact
// request parameters. Entries expire on TTL only; there is no invalidation.
type ttlCache[V any] struct {
	lru *expirable.LRU[string, V]
}

func newTTLCache[V any](size int, ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *ttlCache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *ttlCache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}
