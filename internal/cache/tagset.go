package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TagSet scopes a Store by tag namespaces. Every tag owns a random namespace
// id; entry keys are derived from the ids of all tags, so rotating one id
// orphans every entry stored under that tag.
type TagSet struct {
	store Store
	names []string
}

// NewTagSet returns a tagged view over store.
func NewTagSet(store Store, names ...string) *TagSet {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" {
			clean = append(clean, n)
		}
	}
	return &TagSet{store: store, names: clean}
}

// Names returns the tags of the set.
func (ts *TagSet) Names() []string {
	return ts.names
}

func tagKey(name string) string {
	return "tag:" + name + ":key"
}

// tagID returns the namespace id for name, creating it on first use.
func (ts *TagSet) tagID(ctx context.Context, name string) (string, error) {
	raw, ok, err := ts.store.Get(ctx, tagKey(name))
	if err != nil {
		return "", err
	}
	if ok && len(raw) > 0 {
		return string(raw), nil
	}
	return ts.resetTag(ctx, name)
}

func (ts *TagSet) resetTag(ctx context.Context, name string) (string, error) {
	id := uuid.NewString()
	if err := ts.store.Put(ctx, tagKey(name), []byte(id), Forever); err != nil {
		return "", fmt.Errorf("reset tag %s: %w", name, err)
	}
	return id, nil
}

// namespace joins the current ids of every tag.
func (ts *TagSet) namespace(ctx context.Context) (string, error) {
	ids := make([]string, len(ts.names))
	for i, name := range ts.names {
		id, err := ts.tagID(ctx, name)
		if err != nil {
			return "", err
		}
		ids[i] = id
	}
	return strings.Join(ids, "|"), nil
}

// taggedKey maps key into the current namespace of the set.
func (ts *TagSet) taggedKey(ctx context.Context, key string) (string, error) {
	ns, err := ts.namespace(ctx)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(ns))
	return hex.EncodeToString(sum[:]) + ":" + key, nil
}

// Get implements Store.
func (ts *TagSet) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := ts.taggedKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return ts.store.Get(ctx, k)
}

// Put implements Store.
func (ts *TagSet) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := ts.taggedKey(ctx, key)
	if err != nil {
		return err
	}
	return ts.store.Put(ctx, k, value, ttl)
}

// Forget implements Store.
func (ts *TagSet) Forget(ctx context.Context, key string) (bool, error) {
	k, err := ts.taggedKey(ctx, key)
	if err != nil {
		return false, err
	}
	return ts.store.Forget(ctx, k)
}

// Flush rotates the namespace id of every tag in the set.
func (ts *TagSet) Flush(ctx context.Context) error {
	for _, name := range ts.names {
		if _, err := ts.resetTag(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
