package vikasyatra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxCachedQuizzes  = 10
	maxRecentEntries  = 5
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
	EventSyncStart    = "sync.start"
	EventSyncEntity   = "sync.entity"
	EventSyncComplete = "sync.complete"
)

// ============================================================================
// Field allowlists
// ============================================================================

var profileProjection = Projection{
	{Name: "uid", When: Truthy},
	{Name: "displayName", When: Truthy},
	{Name: "email", When: Truthy},
	{Name: "photoURL", When: Truthy},
	{Name: "emailVerified", When: Present},
	{Name: "interests", When: NonEmpty},
	{Name: "preferences", When: Truthy},
}

var statsProjection = Projection{
	{Name: "totalQuizzesTaken", When: Present},
	{Name: "averageScore", When: Present},
	{Name: "streakDays", When: Present},
	{Name: "totalHoursLearned", When: Present},
	{Name: "completedRoadmaps", When: Present},
	{Name: "skillsLearning", When: Present},
	{Name: "strongSubjects", When: NonEmpty},
	{Name: "weakSubjects", When: NonEmpty},
	{Name: "weeklyProgress", When: Present, Object: Projection{
		{Name: "quizzesThisWeek", When: Present},
		{Name: "hoursThisWeek", When: Present},
		{Name: "currentStreak", When: Present},
	}},
	{Name: "recentActivity", When: NonEmpty, Limit: maxRecentEntries},
}

var dashboardProjection = Projection{
	{Name: "recentQuizzes", When: NonEmpty, Limit: maxRecentEntries},
	{Name: "recentRoadmaps", When: NonEmpty, Limit: maxRecentEntries},
	{Name: "learningProgress", When: Present, Object: Projection{
		{Name: "currentStreak", When: Present},
		{Name: "weeklyGoal", When: Present},
		{Name: "weeklyProgress", When: Present},
		{Name: "totalXP", When: Present},
	}},
	{Name: "quickStats", When: Present, Object: Projection{
		{Name: "quizzesThisWeek", When: Present},
		{Name: "hoursThisWeek", When: Present},
		{Name: "roadmapsInProgress", When: Present},
	}},
	{Name: "upcomingTasks", When: NonEmpty},
	{Name: "achievements", When: NonEmpty},
}

// questionProjection keeps nothing that could reveal an answer.
var questionProjection = Projection{
	{Name: "id", When: Truthy},
	{Name: "question", When: Truthy},
	{Name: "type", When: Truthy},
	{Name: "options", When: NonEmpty},
}

var quizProjection = Projection{
	{Name: "id", When: Truthy},
	{Name: "title", When: Truthy},
	{Name: "subject", When: Truthy},
	{Name: "difficulty", When: Truthy},
	{Name: "duration", When: Truthy},
	{Name: "totalQuestions", When: Truthy},
	{Name: "createdAt", When: Truthy},
	{Name: "completedAt", When: Truthy},
	{Name: "score", When: Present},
	{Name: "questions", When: NonEmpty, Each: questionProjection},
}

var quizListProjection = Projection{
	{
		Name:  "quizzes",
		When:  NonEmpty,
		Keep:  func(q Document) bool { return truthy(q["title"]) },
		Limit: maxCachedQuizzes,
		Tail:  true,
		Each:  quizProjection,
	},
}

// ============================================================================
// Events
// ============================================================================

// SyncEventHandler receives orchestrator events.
type SyncEventHandler func(event string, payload any)

// EntityResult is the payload of EventSyncEntity.
type EntityResult struct {
	Key string
	OK  bool
}

type syncEmitter struct {
	mu        sync.RWMutex
	listeners map[string][]SyncEventHandler
}

func (e *syncEmitter) On(event string, handler SyncEventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]SyncEventHandler)
	}
	e.listeners[event] = append(e.listeners[event], handler)
}

func (e *syncEmitter) emit(event string, payload any) {
	e.mu.RLock()
	handlers := e.listeners[event]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() { recover() }() // swallow panics in user callbacks
			h(event, payload)
		}()
	}
}

// ============================================================================
// Orchestrator
// ============================================================================

// Payload carries the remote documents for one sync pass. Nil members are
// skipped (and make SyncAll report false).
type Payload struct {
	UserProfile   Document `json:"userProfile,omitempty"`
	UserStats     Document `json:"userStats,omitempty"`
	DashboardData Document `json:"dashboardData,omitempty"`
	QuizzesData   Document `json:"quizzesData,omitempty"`
}

// SyncOptions configures an Orchestrator. All fields are optional.
type SyncOptions struct {
	Connectivity *Connectivity
	Logger       *Logger
	Now          func() time.Time
	// Source overrides the client's stats API for Refresh.
	Source StatsSource
}

// Orchestrator writes sanitized remote documents into the entity caches.
type Orchestrator struct {
	syncEmitter
	caches *EntityCaches
	conn   *Connectivity
	source StatsSource
	log    *Logger
	now    func() time.Time

	inProgress atomic.Bool
}

// NewOrchestrator loads the entity caches from store. client may be nil if
// Refresh is never used.
func NewOrchestrator(ctx context.Context, store *KeyedStore, client *Client, opts *SyncOptions) *Orchestrator {
	if opts == nil {
		opts = &SyncOptions{}
	}
	o := &Orchestrator{
		caches: NewEntityCaches(ctx, store),
		conn:   opts.Connectivity,
		source: opts.Source,
		log:    orNop(opts.Logger).With("component", "sync"),
		now:    opts.Now,
	}
	if o.conn == nil {
		o.conn = NewConnectivity(true, opts.Logger)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.source == nil && client != nil {
		o.source = client.Stats()
	}
	return o
}

func (o *Orchestrator) Caches() *EntityCaches { return o.caches }

func (o *Orchestrator) Connectivity() *Connectivity { return o.conn }

// InProgress reports whether a SyncAll pass is running.
func (o *Orchestrator) InProgress() bool { return o.inProgress.Load() }

func (o *Orchestrator) stamp() string {
	return o.now().UTC().Format(timestampLayout)
}

func (o *Orchestrator) SyncProfile(ctx context.Context, src Document) bool {
	return o.syncEntity(ctx, o.caches.Profile, src, func(doc Document) Document {
		out := profileProjection.Apply(doc)
		out["lastSync"] = o.stamp()
		return out
	})
}

func (o *Orchestrator) SyncStats(ctx context.Context, src Document) bool {
	return o.syncEntity(ctx, o.caches.Stats, src, func(doc Document) Document {
		out := statsProjection.Apply(doc)
		out["lastUpdated"] = o.stamp()
		return out
	})
}

func (o *Orchestrator) SyncDashboard(ctx context.Context, src Document) bool {
	return o.syncEntity(ctx, o.caches.Dashboard, src, func(doc Document) Document {
		out := dashboardProjection.Apply(doc)
		out["lastSync"] = o.stamp()
		return out
	})
}

// SyncQuizzes caches at most the last ten titled quizzes with their
// questions reduced to id, question, type and options.
func (o *Orchestrator) SyncQuizzes(ctx context.Context, src Document) bool {
	return o.syncEntity(ctx, o.caches.Quizzes, src, func(doc Document) Document {
		quizzes, _ := quizListProjection.Apply(doc)["quizzes"].([]any)
		if len(quizzes) == 0 {
			return nil
		}
		stamp := o.stamp()
		for _, q := range quizzes {
			q.(Document)["lastSync"] = stamp
		}
		total := doc["totalCount"]
		if !truthy(total) {
			total = len(quizzes)
		}
		return Document{"quizzes": quizzes, "lastSync": stamp, "totalCount": total}
	})
}

func (o *Orchestrator) syncEntity(ctx context.Context, cache *EntityCache, src Document, build func(Document) Document) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("entity sync panicked", "key", cache.Key(), "panic", r)
			ok = false
		}
		o.emit(EventSyncEntity, EntityResult{Key: cache.Key(), OK: ok})
	}()

	if !o.conn.Online() || src == nil {
		return false
	}
	doc, err := normalize(src)
	if err != nil {
		o.log.Error("entity sync failed", "key", cache.Key(), "error", err)
		return false
	}
	out := build(doc)
	if out == nil {
		o.log.Debug("entity sync produced nothing", "key", cache.Key())
		return false
	}
	return cache.Write(ctx, out)
}

// SyncAll runs the four entity syncs concurrently and reports true only if
// all of them succeeded. A call made while another pass is running returns
// false at once.
func (o *Orchestrator) SyncAll(ctx context.Context, p Payload) bool {
	if !o.conn.Online() {
		return false
	}
	if !o.inProgress.CompareAndSwap(false, true) {
		o.log.Debug("sync already in progress")
		return false
	}
	defer o.inProgress.Store(false)

	o.emit(EventSyncStart, nil)
	results := make([]bool, 4)
	steps := []func() bool{
		func() bool { return o.SyncProfile(ctx, p.UserProfile) },
		func() bool { return o.SyncStats(ctx, p.UserStats) },
		func() bool { return o.SyncDashboard(ctx, p.DashboardData) },
		func() bool { return o.SyncQuizzes(ctx, p.QuizzesData) },
	}
	// Plain Group: one entity failing must not cancel the others.
	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			results[i] = step()
			return nil
		})
	}
	_ = g.Wait()

	all := true
	for _, r := range results {
		all = all && r
	}
	o.log.Info("sync pass finished", "ok", all,
		"profile", results[0], "stats", results[1], "dashboard", results[2], "quizzes", results[3])
	o.emit(EventSyncComplete, all)
	return all
}

// Refresh fetches the learner's remote data and runs a sync pass.
func (o *Orchestrator) Refresh(ctx context.Context, user User) (bool, error) {
	if !o.conn.Online() {
		return false, ErrOffline
	}
	if o.source == nil {
		return false, fmt.Errorf("no remote source configured")
	}
	p, err := Collect(ctx, o.source, user, o.now)
	if err != nil {
		return false, err
	}
	return o.SyncAll(ctx, p), nil
}

// Status evaluates the current cache contents.
func (o *Orchestrator) Status() SyncStatus {
	profile, _ := o.caches.Profile.Read()
	stats, _ := o.caches.Stats.Read()
	dashboard, _ := o.caches.Dashboard.Read()
	quizzes, _ := o.caches.Quizzes.Read()
	return EvaluateStatus(o.now(), StatusInput{
		UserProfile:    profile,
		UserStats:      stats,
		DashboardData:  dashboard,
		QuizzesData:    quizzes,
		IsOnline:       o.conn.Online(),
		SyncInProgress: o.InProgress(),
	})
}

// normalize gives src a plain JSON shape ([]any, map[string]any, float64)
// so projections see the same types whether the document was decoded or
// built in Go.
func normalize(src Document) (Document, error) {
	b, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var out Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
