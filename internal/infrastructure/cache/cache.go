// Package cache holds the TableCache implementations.
package cache

import (
	"context"
	"fmt"

	"github.com/pharmalens/backend/internal/domain"
)

// KeyPrefix namespaces keys in a shared redis
const KeyPrefix = "pharmalens:"

// Cache is a TableCache that owns resources
type Cache interface {
	domain.TableCache
	Close() error
}

// Options selects the cache backend
type Options struct {
	Type     string
	RedisURL string
}

// New builds the configured cache; type is "memory" or "redis"
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(ctx, opts.RedisURL, KeyPrefix)
	}
	return nil, fmt.Errorf("unknown cache type %q", opts.Type)
}
