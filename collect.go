package vikasyatra

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// StatsSource is the remote side of a sync pass. *StatsClient satisfies it.
type StatsSource interface {
	UserStats(ctx context.Context, email string) (*UserStats, error)
	Roadmaps(ctx context.Context, email string) ([]Document, error)
	QuizHistory(ctx context.Context, email string) ([]Document, error)
}

// Collect fetches stats, roadmaps and quiz history for user and shapes them
// into a sync Payload. A backend that answers with an error status for one
// resource degrades that resource to "none"; a transport failure aborts.
// ErrNoRemoteData is returned when all three are empty.
func Collect(ctx context.Context, src StatsSource, user User, now func() time.Time) (Payload, error) {
	if user.Email == "" {
		return Payload{}, errors.New("user email not available for sync")
	}
	if now == nil {
		now = time.Now
	}

	var (
		stats    *UserStats
		roadmaps []Document
		history  []Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := src.UserStats(gctx, user.Email)
		stats = s
		return tolerateStatus(err)
	})
	g.Go(func() error {
		r, err := src.Roadmaps(gctx, user.Email)
		roadmaps = r
		return tolerateStatus(err)
	})
	g.Go(func() error {
		h, err := src.QuizHistory(gctx, user.Email)
		history = h
		return tolerateStatus(err)
	})
	if err := g.Wait(); err != nil {
		return Payload{}, err
	}

	hasStats := !stats.empty()
	hasRoadmaps := len(roadmaps) > 0
	hasHistory := len(history) > 0
	if !hasStats && !hasRoadmaps && !hasHistory {
		return Payload{}, ErrNoRemoteData
	}

	stamp := now().UTC().Format(timestampLayout)
	p := Payload{UserProfile: profileDocument(user, stamp)}
	if hasStats {
		p.UserStats = statsDocument(stats, history, stamp)
	}
	if hasRoadmaps || hasHistory {
		p.DashboardData = dashboardDocument(stats, roadmaps, history)
	}
	if hasHistory {
		p.QuizzesData = quizzesDocument(history)
	}
	return p, nil
}

func tolerateStatus(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil
	}
	return err
}

func profileDocument(u User, stamp string) Document {
	doc := Document{
		"uid":         u.UID,
		"displayName": u.DisplayName,
		"email":       u.Email,
		"photoURL":    u.PhotoURL,
		"lastSync":    stamp,
	}
	if u.EmailVerified != nil {
		doc["emailVerified"] = *u.EmailVerified
	}
	return doc
}

func hours(minutes float64) float64 {
	return math.Round(minutes / 60)
}

func statsDocument(s *UserStats, history []Document, stamp string) Document {
	doc := Document{"lastUpdated": stamp}
	if s.QuizzesTaken != nil {
		doc["totalQuizzesTaken"] = *s.QuizzesTaken
	}
	if s.TotalLearningMinutes != nil {
		doc["totalHoursLearned"] = hours(*s.TotalLearningMinutes)
	}
	if s.ActiveRoadmaps != nil {
		doc["completedRoadmaps"] = *s.ActiveRoadmaps
	}
	if s.SkillsLearning != nil {
		doc["skillsLearning"] = *s.SkillsLearning
	}
	if avg, ok := averagePercentage(history); ok {
		doc["averageScore"] = avg
	}
	if s.QuizzesTaken != nil || s.TotalLearningMinutes != nil {
		weekly := Document{}
		if s.QuizzesTaken != nil {
			weekly["quizzesThisWeek"] = *s.QuizzesTaken
		}
		if s.TotalLearningMinutes != nil {
			weekly["hoursThisWeek"] = hours(*s.TotalLearningMinutes)
		}
		doc["weeklyProgress"] = weekly
	}
	if len(history) > 0 {
		activity := make([]any, 0, maxRecentEntries)
		for _, q := range head(history, maxRecentEntries) {
			item := Document{"type": "quiz", "subject": firstOr(q, "General", "subject", "topic")}
			setFirst(item, "score", q, "percentage", "score")
			setFirst(item, "date", q, "completedAt", "date_taken")
			activity = append(activity, item)
		}
		doc["recentActivity"] = activity
	}
	return doc
}

func dashboardDocument(s *UserStats, roadmaps, history []Document) Document {
	doc := Document{}
	if len(history) > 0 {
		recent := make([]any, 0, maxRecentEntries)
		for _, q := range head(history, maxRecentEntries) {
			item := Document{"subject": firstOr(q, "General", "subject", "topic")}
			setFirst(item, "id", q, "_id", "id")
			setFirst(item, "title", q, "title", "quizTitle", "topic")
			setFirst(item, "score", q, "percentage", "score")
			setFirst(item, "date", q, "completedAt", "date_taken")
			recent = append(recent, item)
		}
		doc["recentQuizzes"] = recent
	}
	if len(roadmaps) > 0 {
		recent := make([]any, 0, maxRecentEntries)
		for _, r := range head(roadmaps, maxRecentEntries) {
			item := Document{}
			setFirst(item, "id", r, "_id", "id")
			setFirst(item, "title", r, "title", "goal")
			setFirst(item, "progress", r, "progress")
			setFirst(item, "estimatedCompletion", r, "estimated_completion")
			recent = append(recent, item)
		}
		doc["recentRoadmaps"] = recent
	}
	if !s.empty() {
		quick := Document{}
		if s.QuizzesTaken != nil {
			quick["quizzesThisWeek"] = *s.QuizzesTaken
		}
		if s.TotalLearningMinutes != nil {
			quick["hoursThisWeek"] = hours(*s.TotalLearningMinutes)
		}
		if s.ActiveRoadmaps != nil {
			quick["roadmapsInProgress"] = *s.ActiveRoadmaps
		}
		doc["quickStats"] = quick
	}
	return doc
}

func quizzesDocument(history []Document) Document {
	quizzes := make([]any, 0, len(history))
	for _, q := range history {
		item := Document{}
		setFirst(item, "id", q, "_id", "id")
		setFirst(item, "title", q, "title", "quizTitle", "topic")
		setFirst(item, "subject", q, "subject", "topic")
		setFirst(item, "difficulty", q, "difficulty")
		setFirst(item, "duration", q, "duration", "timeSpent")
		setFirst(item, "createdAt", q, "createdAt", "date_taken")
		setFirst(item, "completedAt", q, "completedAt", "date_taken")
		setFirst(item, "score", q, "percentage", "score")
		if questions, ok := q["questions"].([]any); ok {
			item["questions"] = questions
		}
		setFirst(item, "totalQuestions", q, "totalQuestions")
		if _, ok := item["totalQuestions"]; !ok {
			if questions, ok := item["questions"].([]any); ok && len(questions) > 0 {
				item["totalQuestions"] = len(questions)
			}
		}
		quizzes = append(quizzes, item)
	}
	return Document{"quizzes": quizzes, "totalCount": len(history)}
}

func averagePercentage(history []Document) (float64, bool) {
	var sum float64
	n := 0
	for _, q := range history {
		if p, ok := q["percentage"].(float64); ok {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return math.Round(sum / float64(n)), true
}

func head(list []Document, n int) []Document {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// setFirst copies the first truthy src[keys...] into dst[key].
func setFirst(dst Document, key string, src Document, keys ...string) {
	for _, k := range keys {
		if v := src[k]; truthy(v) {
			dst[key] = v
			return
		}
	}
}

func firstOr(src Document, fallback any, keys ...string) any {
	for _, k := range keys {
		if v := src[k]; truthy(v) {
			return v
		}
	}
	return fallback
}
