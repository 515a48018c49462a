package vikasyatra

// ============================================================================
// Cached snapshots
// ============================================================================

// UserProfileSnapshot is the typed view of the offline_user_profile document.
type UserProfileSnapshot struct {
	UID           string         `json:"uid,omitempty"`
	DisplayName   string         `json:"displayName,omitempty"`
	Email         string         `json:"email,omitempty"`
	PhotoURL      string         `json:"photoURL,omitempty"`
	EmailVerified *bool          `json:"emailVerified,omitempty"`
	Interests     []string       `json:"interests,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty"`
	LastSync      string         `json:"lastSync,omitempty"`
}

type WeeklyProgress struct {
	QuizzesThisWeek *float64 `json:"quizzesThisWeek,omitempty"`
	HoursThisWeek   *float64 `json:"hoursThisWeek,omitempty"`
	CurrentStreak   *float64 `json:"currentStreak,omitempty"`
}

type ActivityItem struct {
	Type    string   `json:"type,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Date    string   `json:"date,omitempty"`
}

// UserStatsSnapshot is the typed view of the offline_user_stats document.
type UserStatsSnapshot struct {
	TotalQuizzesTaken *float64        `json:"totalQuizzesTaken,omitempty"`
	AverageScore      *float64        `json:"averageScore,omitempty"`
	StreakDays        *float64        `json:"streakDays,omitempty"`
	TotalHoursLearned *float64        `json:"totalHoursLearned,omitempty"`
	CompletedRoadmaps *float64        `json:"completedRoadmaps,omitempty"`
	SkillsLearning    *float64        `json:"skillsLearning,omitempty"`
	StrongSubjects    []string        `json:"strongSubjects,omitempty"`
	WeakSubjects      []string        `json:"weakSubjects,omitempty"`
	WeeklyProgress    *WeeklyProgress `json:"weeklyProgress,omitempty"`
	RecentActivity    []ActivityItem  `json:"recentActivity,omitempty"`
	LastUpdated       string          `json:"lastUpdated,omitempty"`
}

type RecentQuiz struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title,omitempty"`
	Subject string   `json:"subject,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Date    string   `json:"date,omitempty"`
}

type RecentRoadmap struct {
	ID                  string   `json:"id,omitempty"`
	Title               string   `json:"title,omitempty"`
	Progress            *float64 `json:"progress,omitempty"`
	EstimatedCompletion string   `json:"estimatedCompletion,omitempty"`
}

type QuickStats struct {
	QuizzesThisWeek    *float64 `json:"quizzesThisWeek,omitempty"`
	HoursThisWeek      *float64 `json:"hoursThisWeek,omitempty"`
	RoadmapsInProgress *float64 `json:"roadmapsInProgress,omitempty"`
}

type LearningProgress struct {
	CurrentStreak  *float64 `json:"currentStreak,omitempty"`
	WeeklyGoal     *float64 `json:"weeklyGoal,omitempty"`
	WeeklyProgress *float64 `json:"weeklyProgress,omitempty"`
	TotalXP        *float64 `json:"totalXP,omitempty"`
}

// DashboardSnapshot is the typed view of the offline_dashboard_data document.
type DashboardSnapshot struct {
	RecentQuizzes    []RecentQuiz      `json:"recentQuizzes,omitempty"`
	RecentRoadmaps   []RecentRoadmap   `json:"recentRoadmaps,omitempty"`
	LearningProgress *LearningProgress `json:"learningProgress,omitempty"`
	QuickStats       *QuickStats       `json:"quickStats,omitempty"`
	UpcomingTasks    []map[string]any  `json:"upcomingTasks,omitempty"`
	Achievements     []map[string]any  `json:"achievements,omitempty"`
	LastSync         string            `json:"lastSync,omitempty"`
}

// CachedQuestion is a quiz question with every answer field stripped.
type CachedQuestion struct {
	ID       any      `json:"id,omitempty"`
	Question string   `json:"question,omitempty"`
	Type     string   `json:"type,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type CachedQuiz struct {
	ID             string           `json:"id,omitempty"`
	Title          string           `json:"title,omitempty"`
	Subject        string           `json:"subject,omitempty"`
	Difficulty     string           `json:"difficulty,omitempty"`
	Duration       *float64         `json:"duration,omitempty"`
	TotalQuestions *float64         `json:"totalQuestions,omitempty"`
	CreatedAt      string           `json:"createdAt,omitempty"`
	CompletedAt    string           `json:"completedAt,omitempty"`
	Score          *float64         `json:"score,omitempty"`
	Questions      []CachedQuestion `json:"questions,omitempty"`
	LastSync       string           `json:"lastSync,omitempty"`
}

// QuizCacheSnapshot is the typed view of the offline_quizzes document.
type QuizCacheSnapshot struct {
	Quizzes    []CachedQuiz `json:"quizzes"`
	TotalCount int          `json:"totalCount"`
	LastSync   string       `json:"lastSync,omitempty"`
}

// ============================================================================
// Remote resources
// ============================================================================

// UserStats is the GET /api/user-stats document. Nil fields were absent.
type UserStats struct {
	QuizzesTaken         *float64 `json:"quizzes_taken,omitempty"`
	TotalLearningMinutes *float64 `json:"total_learning_minutes,omitempty"`
	ActiveRoadmaps       *float64 `json:"active_roadmaps,omitempty"`
	SkillsLearning       *float64 `json:"skills_learning,omitempty"`
}

func (s *UserStats) empty() bool {
	return s == nil || (s.QuizzesTaken == nil && s.TotalLearningMinutes == nil && s.ActiveRoadmaps == nil && s.SkillsLearning == nil)
}

// User is the signed-in identity the profile snapshot is built from.
type User struct {
	UID           string `json:"uid,omitempty" toml:"uid"`
	DisplayName   string `json:"displayName,omitempty" toml:"display_name"`
	Email         string `json:"email" toml:"email"`
	PhotoURL      string `json:"photoURL,omitempty" toml:"photo_url"`
	EmailVerified *bool  `json:"emailVerified,omitempty" toml:"email_verified"`
}

// ResumeUpload is the POST /api/resume/upload response.
type ResumeUpload struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url,omitempty"`
	URL       string `json:"url,omitempty"`
}

// AnalyzeRequest asks for a resume/job match. Exactly one of ResumeText or
// PublicID should be set; FileFormat accompanies PublicID.
type AnalyzeRequest struct {
	ResumeText     string `json:"resume_text,omitempty"`
	PublicID       string `json:"public_id,omitempty"`
	FileFormat     string `json:"file_format,omitempty"`
	JobDescription string `json:"job_description"`
}

type ResumeAnalysis struct {
	MatchScore   float64  `json:"match_score"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// JobStatusResponse is the GET /api/visual/job/{id} document.
type JobStatusResponse struct {
	Status JobStatus `json:"status"`
	URL    string    `json:"url,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// CreateJobResponse is the POST /api/visual/job/{mode} document.
type CreateJobResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// HealthStatus is the GET / document.
type HealthStatus struct {
	Status string `json:"status"`
}
