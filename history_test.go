package vikasyatra

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestHistoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	h, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, label := range []string{"first", "second", "third"} {
		require.NoError(t, h.Save(ctx, &VideoRecord{
			SourceType:  ModeText,
			InputSample: label,
			VideoURL:    "https://cdn.example.com/" + label + ".mp4",
			UserID:      "u1",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, h.Save(ctx, &VideoRecord{
		SourceType: ModePDF,
		VideoURL:   "https://cdn.example.com/other.mp4",
		UserID:     "u2",
		Metadata:   datatypes.JSON(`{"pages":3}`),
		CreatedAt:  base,
	}))

	got, err := h.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].InputSample)
	assert.Equal(t, "first", got[2].InputSample)
	assert.NotEqual(t, uuid.Nil, got[0].ID)

	got, err = h.List(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = h.List(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"pages":3}`, string(got[0].Metadata))
}

func TestHistoryStoreRequiresURL(t *testing.T) {
	h, err := OpenHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer h.Close()
	assert.Error(t, h.Save(context.Background(), &VideoRecord{UserID: "u1", SourceType: ModeText}))
}

func TestOpenHistoryStoreMigrationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	b, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, b.db.Exec("CREATE VIEW visual_videos AS SELECT 1 AS x").Error)
	require.NoError(t, b.Close())

	h, err := OpenHistoryStore(path)
	assert.Error(t, err)
	assert.Nil(t, h)
}

func TestCloseOnErrorReleasesDB(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	sqlDB, err := b.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Ping())

	cause := errors.New("migrate: boom")
	assert.Same(t, cause, closeOnError(b.db, cause))
	assert.Error(t, sqlDB.Ping())
}
