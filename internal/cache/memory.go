package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process taggable store backed by go-cache.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store that sweeps expired entries every
// cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	d := ttl
	if ttl <= Forever {
		d = gocache.NoExpiration
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.cache.Set(key, stored, d)
	return nil
}

// Forget implements Store.
func (m *MemoryStore) Forget(_ context.Context, key string) (bool, error) {
	_, existed := m.cache.Get(key)
	m.cache.Delete(key)
	return existed, nil
}

// Tags implements TaggableStore.
func (m *MemoryStore) Tags(names ...string) TaggedStore {
	return NewTagSet(m, names...)
}

// Len returns the number of stored entries, including orphaned ones.
func (m *MemoryStore) Len() int {
	return m.cache.ItemCount()
}
