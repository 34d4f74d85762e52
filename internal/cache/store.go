// Package cache memoizes discovery results behind tag-scoped invalidation.
//
// A Store is a plain byte key-value store. Stores that can scope entries by
// tag also implement TaggableStore; the capability is detected at runtime and
// TaggedCache falls back to direct computation without it.
package cache

import (
	"context"
	"time"
)

// Forever stores an entry without expiry.
const Forever time.Duration = 0

// Store is a byte key-value store with optional expiry.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores value under key. A ttl of Forever never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Forget removes key and reports whether it existed.
	Forget(ctx context.Context, key string) (bool, error)
}

// TaggedStore is a view of a store scoped to a set of tags.
type TaggedStore interface {
	Store
	// Flush invalidates every entry stored under any of the view's tags.
	Flush(ctx context.Context) error
}

// TaggableStore is a Store that supports tag-scoped views.
type TaggableStore interface {
	Store
	Tags(names ...string) TaggedStore
}
