package vikasyatra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	fb, err := NewFileBackend(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sb, err := NewSQLiteBackend(filepath.Join(dir, "db", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sb.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(0),
		"file":   fb,
		"sqlite": sb,
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.Set(ctx, "offline_a", []byte(`{"v":1}`)))
			require.NoError(t, b.Set(ctx, "offline_a", []byte(`{"v":2}`)))
			require.NoError(t, b.Set(ctx, "offline_b", []byte(`[]`)))
			require.NoError(t, b.Set(ctx, "other/key with space", []byte(`1`)))

			got, err := b.Get(ctx, "offline_a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":2}`, string(got))

			keys, err := b.Keys(ctx, "offline_")
			require.NoError(t, err)
			assert.Equal(t, []string{"offline_a", "offline_b"}, keys)

			all, err := b.Keys(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, b.Delete(ctx, "offline_a"))
			require.NoError(t, b.Delete(ctx, "offline_a"))
			_, err = b.Get(ctx, "offline_a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestKeyedStoreReadDegradesToNil(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend(0)
	s := NewKeyedStore(mem)

	assert.Nil(t, s.Read(ctx, "missing"))

	require.NoError(t, mem.Set(ctx, "corrupt", []byte(`{not json`)))
	assert.Nil(t, s.Read(ctx, "corrupt"))
	assert.Nil(t, s.ReadRaw(ctx, "corrupt"))

	require.NoError(t, mem.Set(ctx, "number", []byte(`42`)))
	assert.Nil(t, s.Read(ctx, "number"), "non-object values are not documents")
	assert.JSONEq(t, `42`, string(s.ReadRaw(ctx, "number")))
}

func TestKeyedStoreWriteAndRemove(t *testing.T) {
	ctx := context.Background()
	s := NewKeyedStore(NewMemoryBackend(0))

	assert.True(t, s.Write(ctx, "k", Document{"a": 1}))
	assert.Equal(t, Document{"a": 1.0}, s.Read(ctx, "k"))

	assert.False(t, s.Write(ctx, "bad", make(chan int)), "unencodable values fail")

	assert.True(t, s.Remove(ctx, "k"))
	assert.True(t, s.Remove(ctx, "k"))
	assert.Nil(t, s.Read(ctx, "k"))
}

func TestKeyedStoreQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	s := NewKeyedStore(NewMemoryBackend(32))

	assert.True(t, s.Write(ctx, "a", "small"))
	assert.False(t, s.Write(ctx, "b", "this value is far too large for the quota"))
	assert.Nil(t, s.ReadRaw(ctx, "b"))

	// overwriting frees the old value first
	assert.True(t, s.Write(ctx, "a", "tiny"))
}

func TestKeyedStoreUsage(t *testing.T) {
	ctx := context.Background()
	s := NewKeyedStore(NewMemoryBackend(0), WithReportedQuota(100))

	require.True(t, s.Write(ctx, "offline_x", "12345678"))
	require.True(t, s.Write(ctx, "visual_active_job_progress", 5))

	u, err := s.Usage(ctx, "offline_")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Keys)
	assert.Equal(t, int64(len("offline_x")+len(`"12345678"`)), u.UsedBytes)
	assert.InDelta(t, 19.0, u.Percentage, 0.001)

	require.True(t, s.Write(ctx, "offline_big", string(make([]byte, 200))))
	u, err = s.Usage(ctx, "offline_")
	require.NoError(t, err)
	assert.Equal(t, 100.0, u.Percentage)
}
