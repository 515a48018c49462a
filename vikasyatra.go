// Package vikasyatra is the Go client for the VikasYatra career-guidance
// backend, with an offline cache of the learner's profile, stats, dashboard
// and quiz history, and a poller for visual-generation jobs.
//
// Example:
//
//	client := vikasyatra.NewClient(vikasyatra.WithBaseURL("http://localhost:5000"))
//
//	store := vikasyatra.NewKeyedStore(vikasyatra.NewMemoryBackend(0))
//	sync := vikasyatra.NewOrchestrator(ctx, store, client, nil)
//	ok, _ := sync.Refresh(ctx, vikasyatra.User{Email: "learner@example.com"})
//
//	status := sync.Status()
//	fmt.Println(status.UserStats.NeedsSync)
package vikasyatra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ============================================================================
// Environment
// ============================================================================

type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

var environments = map[Environment]string{
	Production:  "https://vikasyatra-backend.onrender.com",
	Development: "http://localhost:5000",
}

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 30 * time.Second
)

// ============================================================================
// Client
// ============================================================================

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *Logger

	stats  *StatsClient
	visual *VisualClient
	resume *ResumeClient
}

type ClientOption func(*Client)

func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithEnvironment(env Environment) ClientOption {
	return func(c *Client) {
		if u, ok := environments[env]; ok {
			c.baseURL = u
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

func WithLogger(l *Logger) ClientOption {
	return func(c *Client) { c.log = orNop(l) }
}

// NewClient creates a backend client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats = &StatsClient{c: c}
	c.visual = &VisualClient{c: c}
	c.resume = &ResumeClient{c: c}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Stats returns the learner statistics sub-client.
func (c *Client) Stats() *StatsClient { return c.stats }

// Visual returns the visual-generation job sub-client.
func (c *Client) Visual() *VisualClient { return c.visual }

// Resume returns the resume analysis sub-client.
func (c *Client) Resume() *ResumeClient { return c.resume }

// Health calls GET / and fails unless the backend answers {"status":"ok"}.
func (c *Client) Health(ctx context.Context) error {
	data, err := c.doRequest(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return err
	}
	h, err := decodeJSON[HealthStatus](data)
	if err != nil {
		return err
	}
	if h.Status != "ok" {
		return fmt.Errorf("backend unhealthy: %q", h.Status)
	}
	return nil
}

// ============================================================================
// Internal request helpers
// ============================================================================

func (c *Client) doRequest(ctx context.Context, method, path string, body any, query map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, bodyReader, contentType, query)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, query map[string]string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		params := url.Values{}
		for k, v := range query {
			params.Set(k, v)
		}
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		c.log.Debug("backend returned error", "method", method, "path", path, "status", resp.StatusCode)
		return nil, apiErr
	}
	return data, nil
}

func decodeJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// ============================================================================
// Stats API
// ============================================================================

type StatsClient struct{ c *Client }

// UserStats calls GET /api/user-stats.
func (s *StatsClient) UserStats(ctx context.Context, email string) (*UserStats, error) {
	data, err := s.c.doRequest(ctx, http.MethodGet, "/api/user-stats", nil, map[string]string{"user_email": email})
	if err != nil {
		return nil, err
	}
	return decodeJSON[UserStats](data)
}

// Roadmaps calls GET /api/roadmap/user.
func (s *StatsClient) Roadmaps(ctx context.Context, email string) ([]Document, error) {
	data, err := s.c.doRequest(ctx, http.MethodGet, "/api/roadmap/user", nil, map[string]string{"user_email": email})
	if err != nil {
		return nil, err
	}
	list, err := decodeJSON[[]Document](data)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// QuizHistory calls GET /api/quiz-history. Entries come newest first.
func (s *StatsClient) QuizHistory(ctx context.Context, email string) ([]Document, error) {
	data, err := s.c.doRequest(ctx, http.MethodGet, "/api/quiz-history", nil, map[string]string{"user_email": email})
	if err != nil {
		return nil, err
	}
	list, err := decodeJSON[[]Document](data)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// ============================================================================
// Visual job API
// ============================================================================

type VisualClient struct{ c *Client }

// JobRequest is the body of a job creation call. Exactly one of Text,
// PDFURL or AudioURL is used, according to the mode.
type JobRequest struct {
	Text      string `json:"text,omitempty"`
	PDFURL    string `json:"pdf_url,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	Label     string `json:"label,omitempty"`
}

// CreateJob calls POST /api/visual/job/{mode}.
func (v *VisualClient) CreateJob(ctx context.Context, mode JobMode, req JobRequest) (*CreateJobResponse, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown job mode %q", mode)
	}
	data, err := v.c.doRequest(ctx, http.MethodPost, "/api/visual/job/"+string(mode), req, nil)
	if err != nil {
		return nil, err
	}
	res, err := decodeJSON[CreateJobResponse](data)
	if err != nil {
		return nil, err
	}
	if res.JobID == "" {
		return nil, fmt.Errorf("job creation returned no job_id")
	}
	return res, nil
}

// JobStatus calls GET /api/visual/job/{id}.
func (v *VisualClient) JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	data, err := v.c.doRequest(ctx, http.MethodGet, "/api/visual/job/"+url.PathEscape(jobID), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeJSON[JobStatusResponse](data)
}

// ============================================================================
// Resume API
// ============================================================================

type ResumeClient struct{ c *Client }

// Upload sends a pdf or docx resume as multipart field "resume".
func (r *ResumeClient) Upload(ctx context.Context, fileName string, data []byte) (*ResumeUpload, error) {
	if _, err := resumeFormat(fileName); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("resume", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	body, err := r.c.send(ctx, http.MethodPost, "/api/resume/upload", &buf, w.FormDataContentType(), nil)
	if err != nil {
		return nil, err
	}
	res, err := decodeJSON[ResumeUpload](body)
	if err != nil {
		return nil, err
	}
	if res.PublicID == "" {
		return nil, fmt.Errorf("upload returned no public_id")
	}
	return res, nil
}

// Analyze calls POST /api/resume/analyze. Input is validated before any
// request is made.
func (r *ResumeClient) Analyze(ctx context.Context, req AnalyzeRequest) (*ResumeAnalysis, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	data, err := r.c.doRequest(ctx, http.MethodPost, "/api/resume/analyze", req, nil)
	if err != nil {
		return nil, err
	}
	var res struct {
		Analysis *ResumeAnalysis `json:"analysis"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if res.Analysis == nil {
		return nil, fmt.Errorf("response carried no analysis")
	}
	return res.Analysis, nil
}

// AnalyzeFile uploads a local resume and analyses it against jobDescription.
func (r *ResumeClient) AnalyzeFile(ctx context.Context, path, jobDescription string) (*ResumeAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ErrJobDescriptionRequired
	}
	format, err := resumeFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	up, err := r.Upload(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}
	return r.Analyze(ctx, AnalyzeRequest{PublicID: up.PublicID, FileFormat: format, JobDescription: jobDescription})
}

// Validate checks the request the same way the backend does, job
// description first.
func (a AnalyzeRequest) Validate() error {
	if strings.TrimSpace(a.JobDescription) == "" {
		return ErrJobDescriptionRequired
	}
	if strings.TrimSpace(a.ResumeText) == "" && a.PublicID == "" {
		return ErrResumeInputRequired
	}
	return nil
}

func resumeFormat(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "pdf", nil
	case ".docx":
		return "docx", nil
	}
	return "", ErrUnsupportedResume
}
