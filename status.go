package vikasyatra

import (
	"math"
	"time"
)

// StaleAfter is how old an entity's last sync may get before it needs a new one.
const StaleAfter = time.Hour

// EntityStatus describes one cached entity.
type EntityStatus struct {
	HasData   bool     `json:"hasData"`
	LastSync  string   `json:"lastSync,omitempty"`
	NeedsSync bool     `json:"needsSync"`
	Data      Document `json:"data,omitempty"`
}

// SyncStatus is the aggregate report over the four entity caches.
type SyncStatus struct {
	UserProfile    EntityStatus `json:"userProfile"`
	UserStats      EntityStatus `json:"userStats"`
	DashboardData  EntityStatus `json:"dashboardData"`
	QuizzesData    EntityStatus `json:"quizzesData"`
	IsOnline       bool         `json:"isOnline"`
	SyncInProgress bool         `json:"syncInProgress"`
}

// StatusInput is everything EvaluateStatus looks at.
type StatusInput struct {
	UserProfile    Document
	UserStats      Document
	DashboardData  Document
	QuizzesData    Document
	IsOnline       bool
	SyncInProgress bool
}

// EvaluateStatus has no side effects. Stats carry their timestamp in
// lastUpdated, the other entities in lastSync.
func EvaluateStatus(now time.Time, in StatusInput) SyncStatus {
	return SyncStatus{
		UserProfile:    entityStatus(now, in.UserProfile, "lastSync"),
		UserStats:      entityStatus(now, in.UserStats, "lastUpdated"),
		DashboardData:  entityStatus(now, in.DashboardData, "lastSync"),
		QuizzesData:    entityStatus(now, in.QuizzesData, "lastSync"),
		IsOnline:       in.IsOnline,
		SyncInProgress: in.SyncInProgress,
	}
}

func entityStatus(now time.Time, data Document, field string) EntityStatus {
	last, _ := data[field].(string)
	return EntityStatus{
		HasData:   data != nil,
		LastSync:  last,
		NeedsSync: sinceSync(now, last) >= StaleAfter,
		Data:      data,
	}
}

// sinceSync treats a missing or unreadable timestamp as infinitely old.
func sinceSync(now time.Time, last string) time.Duration {
	if last == "" {
		return time.Duration(math.MaxInt64)
	}
	t, err := time.Parse(time.RFC3339Nano, last)
	if err != nil {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(t)
}
