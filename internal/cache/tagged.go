package cache

import (
	"context"
	"encoding/json"
	"time"

	kerrors "starterkit/internal/errors"
	"starterkit/internal/logging"
)

// TaggedCache memoizes values under a main tag plus optional sub-tags.
// Without a taggable store every lookup recomputes. There is no locking
// around computation: concurrent misses may compute twice and the last
// write wins.
type TaggedCache struct {
	store   Store
	mainTag string
	logger  *logging.Logger
}

// New wraps store. A nil store disables caching entirely.
func New(store Store, mainTag string, logger *logging.Logger) *TaggedCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TaggedCache{store: store, mainTag: mainTag, logger: logger}
}

// MainTag returns the tag every entry is stored under.
func (c *TaggedCache) MainTag() string {
	return c.mainTag
}

// Taggable reports whether the underlying store supports tags.
func (c *TaggedCache) Taggable() bool {
	_, ok := c.store.(TaggableStore)
	return ok
}

// Tags returns the main tag followed by the non-empty extras.
func (c *TaggedCache) Tags(extra ...string) []string {
	tags := []string{c.mainTag}
	for _, t := range extra {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (c *TaggedCache) scoped(tags []string) (TaggedStore, bool) {
	ts, ok := c.store.(TaggableStore)
	if !ok {
		return nil, false
	}
	return ts.Tags(tags...), true
}

type rememberOptions struct {
	rehydrate bool
	ttl       time.Duration
}

// Option adjusts a Remember call.
type Option func(*rememberOptions)

// Rehydrate forgets any existing entry before the lookup.
func Rehydrate(on bool) Option {
	return func(o *rememberOptions) { o.rehydrate = on }
}

// TTL expires the stored entry after d. The default is Forever.
func TTL(d time.Duration) Option {
	return func(o *rememberOptions) { o.ttl = d }
}

// Remember returns the cached value for key under tags, computing and storing
// it on a miss. Compute errors are returned and nothing is stored. Store
// failures are logged and degrade to direct computation.
func Remember[V any](ctx context.Context, c *TaggedCache, tags []string, key string, compute func() (V, error), opts ...Option) (V, error) {
	var o rememberOptions
	for _, opt := range opts {
		opt(&o)
	}

	store, ok := c.scoped(tags)
	if !ok {
		return compute()
	}

	if o.rehydrate {
		if _, err := store.Forget(ctx, key); err != nil {
			c.degraded("forget", key, err)
			return compute()
		}
	} else {
		raw, found, err := store.Get(ctx, key)
		if err != nil {
			c.degraded("get", key, err)
			return compute()
		}
		if found {
			var v V
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			c.logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
				"key":  key,
				"tags": tags,
			})
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.degraded("encode", key, err)
		return v, nil
	}
	if err := store.Put(ctx, key, raw, o.ttl); err != nil {
		c.degraded("put", key, err)
	}
	return v, nil
}

// Put stores v under key without consulting the previous value.
func Put[V any](ctx context.Context, c *TaggedCache, tags []string, key string, v V, ttl time.Duration) bool {
	store, ok := c.scoped(tags)
	if !ok {
		return false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.degraded("encode", key, err)
		return false
	}
	if err := store.Put(ctx, key, raw, ttl); err != nil {
		c.degraded("put", key, err)
		return false
	}
	return true
}

// Lookup returns the cached value for key without computing on a miss.
func Lookup[V any](ctx context.Context, c *TaggedCache, tags []string, key string) (V, bool) {
	var v V
	store, ok := c.scoped(tags)
	if !ok {
		return v, false
	}
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		c.degraded("get", key, err)
		return v, false
	}
	if !found || json.Unmarshal(raw, &v) != nil {
		return v, false
	}
	return v, true
}

// Forget removes one entry. It returns false when the store is not taggable,
// the entry was absent, or the store failed.
func (c *TaggedCache) Forget(ctx context.Context, tags []string, key string) bool {
	store, ok := c.scoped(tags)
	if !ok {
		return false
	}
	existed, err := store.Forget(ctx, key)
	if err != nil {
		c.degraded("forget", key, err)
		return false
	}
	return existed
}

// Flush invalidates every entry under the main tag.
func (c *TaggedCache) Flush(ctx context.Context) bool {
	return c.FlushTags(ctx, c.mainTag)
}

// FlushTags invalidates every entry stored under any of tags.
func (c *TaggedCache) FlushTags(ctx context.Context, tags ...string) bool {
	store, ok := c.scoped(tags)
	if !ok {
		return false
	}
	if err := store.Flush(ctx); err != nil {
		c.degraded("flush", "", err)
		return false
	}
	return true
}

func (c *TaggedCache) degraded(op, key string, err error) {
	c.logger.Warn("Cache store unavailable, computing directly", map[string]interface{}{
		"code":  kerrors.CacheStoreUnavailable,
		"op":    op,
		"key":   key,
		"error": err.Error(),
	})
}
