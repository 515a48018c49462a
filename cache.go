package vikasyatra

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
)

// Local store keys for the cached entities.
const (
	KeyUserProfile   = "offline_user_profile"
	KeyUserStats     = "offline_user_stats"
	KeyDashboardData = "offline_dashboard_data"
	KeyQuizzes       = "offline_quizzes"
)

// EntityKeys lists the four entity cache keys in a fixed order.
var EntityKeys = []string{KeyUserProfile, KeyUserStats, KeyDashboardData, KeyQuizzes}

// Updater derives a new document from the current cached one.
type Updater func(current Document) Document

// Replace is an Updater that ignores the current value.
func Replace(doc Document) Updater {
	return func(Document) Document { return doc }
}

// Merge is an Updater that shallow-copies patch over the current value.
func Merge(patch Document) Updater {
	return func(current Document) Document {
		out := maps.Clone(current)
		maps.Copy(out, patch)
		return out
	}
}

// EntityCache is one named document in the local store, with an in-memory
// mirror of the last value read or written.
type EntityCache struct {
	key   string
	store *KeyedStore

	mu   sync.RWMutex
	data Document
}

// NewEntityCache loads the current value of key into the mirror.
func NewEntityCache(ctx context.Context, store *KeyedStore, key string) *EntityCache {
	return &EntityCache{key: key, store: store, data: store.Read(ctx, key)}
}

func (c *EntityCache) Key() string { return c.key }

// Read returns a copy of the mirrored value; available is true iff data is
// non-nil.
func (c *EntityCache) Read() (data Document, available bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneDocument(c.data), c.data != nil
}

// Reload refreshes the mirror from the store.
func (c *EntityCache) Reload(ctx context.Context) {
	doc := c.store.Read(ctx, c.key)
	c.mu.Lock()
	c.data = doc
	c.mu.Unlock()
}

// Write replaces the cached value wholesale.
func (c *EntityCache) Write(ctx context.Context, doc Document) bool {
	if !c.store.Write(ctx, c.key, doc) {
		return false
	}
	c.mu.Lock()
	c.data = cloneDocument(doc)
	c.mu.Unlock()
	return true
}

// Clear removes the key and empties the mirror.
func (c *EntityCache) Clear(ctx context.Context) bool {
	if !c.store.Remove(ctx, c.key) {
		return false
	}
	c.mu.Lock()
	c.data = nil
	c.mu.Unlock()
	return true
}

// Update applies fn to the persisted value and writes the result. It never
// creates a value: with nothing cached it returns false without writing.
func (c *EntityCache) Update(ctx context.Context, fn Updater) bool {
	current := c.store.Read(ctx, c.key)
	if current == nil {
		return false
	}
	next := fn(current)
	if next == nil {
		return false
	}
	return c.Write(ctx, next)
}

// Decode unmarshals the mirrored value into v. It reports false when
// nothing is cached.
func (c *EntityCache) Decode(v any) (bool, error) {
	data, ok := c.Read()
	if !ok {
		return false, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", c.key, err)
	}
	return true, nil
}

// EntityCaches bundles the four entity caches over one store.
type EntityCaches struct {
	Profile   *EntityCache
	Stats     *EntityCache
	Dashboard *EntityCache
	Quizzes   *EntityCache
}

func NewEntityCaches(ctx context.Context, store *KeyedStore) *EntityCaches {
	return &EntityCaches{
		Profile:   NewEntityCache(ctx, store, KeyUserProfile),
		Stats:     NewEntityCache(ctx, store, KeyUserStats),
		Dashboard: NewEntityCache(ctx, store, KeyDashboardData),
		Quizzes:   NewEntityCache(ctx, store, KeyQuizzes),
	}
}

// All returns the caches in EntityKeys order.
func (e *EntityCaches) All() []*EntityCache {
	return []*EntityCache{e.Profile, e.Stats, e.Dashboard, e.Quizzes}
}

// ByKey returns the cache stored under key, or nil.
func (e *EntityCaches) ByKey(key string) *EntityCache {
	for _, c := range e.All() {
		if c.key == key {
			return c
		}
	}
	return nil
}

// ClearAll removes the four entity keys and nothing else.
func (e *EntityCaches) ClearAll(ctx context.Context) bool {
	ok := true
	for _, c := range e.All() {
		if !c.Clear(ctx) {
			ok = false
		}
	}
	return ok
}

// cloneDocument deep-copies the maps and lists of doc so the mirror never
// shares them with callers.
func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
