// Package cachemanager provides a small generic cache abstraction backed by go-cache.
package cachemanager

import (
	"context"
	"time"
)

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// Stats is a point-in-time snapshot of cache usage.
type Stats struct {
	Hits   uint64
	Misses uint64
	Items  int
}
