// Package memory provides in-memory cache repository implementation
package memory

import (
	"context"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	gocache "github.com/patrickmn/go-cache"
)

// CacheRepository implements the cache repository on a process-local go-cache store
type CacheRepository struct {
	store *gocache.Cache
}

// NewCacheRepository creates a new in-memory cache repository.
// Entries saved with a zero TTL use defaultTTL.
func NewCacheRepository(defaultTTL time.Duration) outbound.CacheRepository {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &CacheRepository{
		store: gocache.New(defaultTTL, 10*time.Minute),
	}
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := r.store.Get(key)
	if !found {
		return nil, outbound.ErrCacheMiss
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	return data, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	r.store.Set(key, stored, ttl)
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.store.Delete(key)
	return nil
}

// Flush removes every key
func (r *CacheRepository) Flush(ctx context.Context) error {
	r.store.Flush()
	return nil
}
