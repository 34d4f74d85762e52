package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRUStore is a bounded in-process store without tag support. Wrapping it
// in a TaggedCache disables memoization.
type LRUStore struct {
	cache *lru.Cache[string, lruEntry]
	now   func() time.Time
}

// NewLRUStore creates a store holding at most size entries.
func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: c, now: time.Now}, nil
}

// Get implements Store.
func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.cache.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Put implements Store.
func (s *LRUStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := lruEntry{value: append([]byte(nil), value...)}
	if ttl > Forever {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// Forget implements Store.
func (s *LRUStore) Forget(_ context.Context, key string) (bool, error) {
	return s.cache.Remove(key), nil
}
