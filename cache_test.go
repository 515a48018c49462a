package vikasyatra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingBackend counts writes to the wrapped backend.
type countingBackend struct {
	*MemoryBackend
	sets int
}

func (c *countingBackend) Set(ctx context.Context, key string, value []byte) error {
	c.sets++
	return c.MemoryBackend.Set(ctx, key, value)
}

func TestEntityCacheReadWriteClear(t *testing.T) {
	ctx := context.Background()
	store := NewKeyedStore(NewMemoryBackend(0))
	c := NewEntityCache(ctx, store, KeyUserProfile)

	data, ok := c.Read()
	assert.False(t, ok)
	assert.Nil(t, data)

	require.True(t, c.Write(ctx, Document{"uid": "u1"}))
	data, ok = c.Read()
	assert.True(t, ok)
	assert.Equal(t, "u1", data["uid"])

	// a fresh cache over the same store sees the persisted value
	again := NewEntityCache(ctx, store, KeyUserProfile)
	data, ok = again.Read()
	assert.True(t, ok)
	assert.Equal(t, "u1", data["uid"])

	require.True(t, c.Clear(ctx))
	_, ok = c.Read()
	assert.False(t, ok)
	assert.Nil(t, store.Read(ctx, KeyUserProfile))
}

func TestEntityCacheMirrorIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewKeyedStore(NewMemoryBackend(0))
	c := NewEntityCache(ctx, store, KeyDashboardData)

	doc := Document{"title": "a", "quickStats": Document{"hoursThisWeek": 2.0}, "tags": []any{"x"}}
	require.True(t, c.Write(ctx, doc))
	doc["title"] = "changed"
	doc["quickStats"].(Document)["hoursThisWeek"] = 9.0
	doc["tags"].([]any)[0] = "y"

	got, _ := c.Read()
	got["extra"] = true
	got["quickStats"].(Document)["hoursThisWeek"] = 7.0

	want := Document{"title": "a", "quickStats": Document{"hoursThisWeek": 2.0}, "tags": []any{"x"}}
	again, ok := c.Read()
	require.True(t, ok)
	assert.Equal(t, want, again)
	assert.Equal(t, want, store.Read(ctx, KeyDashboardData))
}

func TestEntityCacheUpdateNeverCreates(t *testing.T) {
	ctx := context.Background()
	backend := &countingBackend{MemoryBackend: NewMemoryBackend(0)}
	c := NewEntityCache(ctx, NewKeyedStore(backend), KeyUserStats)

	called := false
	ok := c.Update(ctx, func(Document) Document {
		called = true
		return Document{"x": 1}
	})
	assert.False(t, ok)
	assert.False(t, called)
	assert.Equal(t, 0, backend.sets)
	assert.False(t, c.Update(ctx, Replace(Document{"x": 1})))
	assert.Equal(t, 0, backend.sets)

	require.True(t, c.Write(ctx, Document{"a": 1.0, "b": 2.0}))
	require.True(t, c.Update(ctx, Merge(Document{"b": 3.0})))
	data, _ := c.Read()
	assert.Equal(t, Document{"a": 1.0, "b": 3.0}, data)

	require.True(t, c.Update(ctx, Replace(Document{"c": true})))
	data, _ = c.Read()
	assert.Equal(t, Document{"c": true}, data)
}

func TestEntityCacheDecode(t *testing.T) {
	ctx := context.Background()
	c := NewEntityCache(ctx, NewKeyedStore(NewMemoryBackend(0)), KeyUserStats)

	var snap UserStatsSnapshot
	found, err := c.Decode(&snap)
	require.NoError(t, err)
	assert.False(t, found)

	require.True(t, c.Write(ctx, Document{
		"totalQuizzesTaken": 5.0,
		"weeklyProgress":    Document{"hoursThisWeek": 2.0},
		"lastUpdated":       "2025-01-01T00:00:00.000Z",
	}))
	found, err = c.Decode(&snap)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, snap.TotalQuizzesTaken)
	assert.Equal(t, 5.0, *snap.TotalQuizzesTaken)
	require.NotNil(t, snap.WeeklyProgress)
	assert.Nil(t, snap.WeeklyProgress.QuizzesThisWeek)
	assert.Nil(t, snap.AverageScore)
}

func TestClearAllRemovesOnlyEntityKeys(t *testing.T) {
	ctx := context.Background()
	store := NewKeyedStore(NewMemoryBackend(0))
	caches := NewEntityCaches(ctx, store)

	for _, c := range caches.All() {
		require.True(t, c.Write(ctx, Document{"k": c.Key()}))
	}
	require.True(t, store.Write(ctx, KeyActiveJob, JobHandle{JobID: "j1"}))
	require.True(t, store.Write(ctx, "offline_custom", Document{"keep": true}))

	assert.True(t, caches.ClearAll(ctx))

	for _, c := range caches.All() {
		_, ok := c.Read()
		assert.False(t, ok, c.Key())
	}
	keys, err := store.Backend().Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"offline_custom", KeyActiveJob}, keys)

	reloaded := NewEntityCaches(ctx, store)
	for _, c := range reloaded.All() {
		_, ok := c.Read()
		assert.False(t, ok, c.Key())
	}
}

func TestEntityCachesByKey(t *testing.T) {
	caches := NewEntityCaches(context.Background(), NewKeyedStore(NewMemoryBackend(0)))
	assert.Same(t, caches.Quizzes, caches.ByKey(KeyQuizzes))
	assert.Nil(t, caches.ByKey("nope"))
	assert.Len(t, EntityKeys, len(caches.All()))
}
