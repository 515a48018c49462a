package vikasyatra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNeedsSyncThreshold(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) string { return now.Add(-d).Format(timestampLayout) }

	tests := []struct {
		name     string
		lastSync any
		want     bool
	}{
		{"absent", nil, true},
		{"unparseable", "yesterday", true},
		{"just synced", at(0), false},
		{"59 minutes", at(59 * time.Minute), false},
		{"one millisecond short of an hour", at(time.Hour - time.Millisecond), false},
		{"exactly one hour", at(time.Hour), true},
		{"just over an hour", at(time.Hour + time.Millisecond), true},
		{"a day", at(24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{"uid": "u1"}
			if tt.lastSync != nil {
				doc["lastSync"] = tt.lastSync
			}
			st := EvaluateStatus(now, StatusInput{UserProfile: doc})
			assert.True(t, st.UserProfile.HasData)
			assert.Equal(t, tt.want, st.UserProfile.NeedsSync)
		})
	}
}

func TestEvaluateStatusAggregates(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(-10 * time.Minute).Format(timestampLayout)

	st := EvaluateStatus(now, StatusInput{
		// stats are stamped in lastUpdated, so lastSync is ignored there
		UserStats:      Document{"lastSync": fresh},
		DashboardData:  Document{"lastSync": fresh},
		QuizzesData:    Document{"lastSync": fresh, "quizzes": []any{}},
		IsOnline:       true,
		SyncInProgress: true,
	})

	assert.False(t, st.UserProfile.HasData)
	assert.True(t, st.UserProfile.NeedsSync)
	assert.Empty(t, st.UserProfile.LastSync)
	assert.Nil(t, st.UserProfile.Data)

	assert.True(t, st.UserStats.HasData)
	assert.True(t, st.UserStats.NeedsSync)
	assert.Empty(t, st.UserStats.LastSync)

	assert.False(t, st.DashboardData.NeedsSync)
	assert.Equal(t, fresh, st.DashboardData.LastSync)
	assert.False(t, st.QuizzesData.NeedsSync)
	assert.Contains(t, st.QuizzesData.Data, "quizzes")

	assert.True(t, st.IsOnline)
	assert.True(t, st.SyncInProgress)
}

func TestEvaluateStatusAcceptsPlainRFC3339(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := EvaluateStatus(now, StatusInput{UserStats: Document{"lastUpdated": "2025-03-01T11:30:00+00:00"}})
	assert.False(t, st.UserStats.NeedsSync)
	assert.Equal(t, "2025-03-01T11:30:00+00:00", st.UserStats.LastSync)
}
