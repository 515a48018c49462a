package vikasyatra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Local store keys for the job being observed.
const (
	KeyActiveJob         = "visual_active_job"
	KeyActiveJobProgress = "visual_active_job_progress"
)

const (
	initialProgress = 5
	resumedProgress = 15
	progressStep    = 5
	progressCeiling = 85
	labelLength     = 40
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool { return s == JobCompleted || s == JobFailed }

type JobMode string

const (
	ModeText  JobMode = "text"
	ModePDF   JobMode = "pdf"
	ModeAudio JobMode = "audio"
)

func (m JobMode) Valid() bool { return m == ModeText || m == ModePDF || m == ModeAudio }

// JobHandle identifies a submitted job. It is what survives a restart.
type JobHandle struct {
	JobID     string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Mode      JobMode   `json:"mode"`
	Label     string    `json:"label"`
	CreatedAt int64     `json:"created_at"`
}

// JobInput describes what to generate from. Text is used for ModeText. For
// the media modes either URL points at an already hosted file or File is
// uploaded through the poller's MediaUploader first.
type JobInput struct {
	Mode        JobMode
	Text        string
	URL         string
	File        io.Reader
	FileName    string
	ContentType string
	Label       string
}

// JobState is a snapshot of what the poller knows.
type JobState struct {
	Job       *JobHandle `json:"job,omitempty"`
	Progress  int        `json:"progress"`
	ResultURL string     `json:"resultUrl,omitempty"`
	Error     string     `json:"error,omitempty"`
	Active    bool       `json:"active"`
}

// JobAPI is the remote job endpoint. *VisualClient satisfies it.
type JobAPI interface {
	CreateJob(ctx context.Context, mode JobMode, req JobRequest) (*CreateJobResponse, error)
	JobStatus(ctx context.Context, jobID string) (*JobStatusResponse, error)
}

type JobPollerOptions struct {
	Uploader MediaUploader
	History  HistoryStore
	User     User
	Schedule Schedule
	Logger   *Logger
	Now      func() time.Time
	OnUpdate func(JobState)
}

// JobPoller submits one generation job at a time and follows it to a
// terminal state, mirroring the handle and progress into the local store.
type JobPoller struct {
	api      JobAPI
	store    *KeyedStore
	uploader MediaUploader
	history  HistoryStore
	user     User
	schedule Schedule
	log      *Logger
	now      func() time.Time
	onUpdate func(JobState)

	mu      sync.Mutex
	state   JobState
	polling atomic.Bool
}

func NewJobPoller(api JobAPI, store *KeyedStore, opts *JobPollerOptions) *JobPoller {
	if opts == nil {
		opts = &JobPollerOptions{}
	}
	p := &JobPoller{
		api:      api,
		store:    store,
		uploader: opts.Uploader,
		history:  opts.History,
		user:     opts.User,
		schedule: opts.Schedule,
		log:      orNop(opts.Logger).With("component", "jobs"),
		now:      opts.Now,
		onUpdate: opts.OnUpdate,
	}
	if p.schedule == nil {
		p.schedule = FixedSchedule(DefaultPollInterval)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// State returns a copy of the current state.
func (p *JobPoller) State() JobState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *JobPoller) snapshot() JobState {
	s := p.state
	if s.Job != nil {
		j := *s.Job
		s.Job = &j
	}
	return s
}

// Polling reports whether Run is currently looping.
func (p *JobPoller) Polling() bool { return p.polling.Load() }

func (p *JobPoller) update(fn func(s *JobState)) {
	p.mu.Lock()
	fn(&p.state)
	snap := p.snapshot()
	p.mu.Unlock()
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}

// Submit validates in, uploads local media if needed, creates the remote
// job and persists its handle. Validation happens before any request.
func (p *JobPoller) Submit(ctx context.Context, in JobInput) (*JobHandle, error) {
	req, label, err := p.prepare(in)
	if err != nil {
		return nil, err
	}

	p.update(func(s *JobState) { *s = JobState{Progress: initialProgress, Active: true} })
	p.store.Write(ctx, KeyActiveJobProgress, initialProgress)

	if in.Mode != ModeText && in.URL == "" {
		url, err := p.uploader.Upload(ctx, in.FileName, in.ContentType, in.File)
		if err != nil {
			p.abandon(ctx, err)
			return nil, fmt.Errorf("upload media: %w", err)
		}
		if in.Mode == ModePDF {
			req.PDFURL = url
		} else {
			req.AudioURL = url
		}
	}

	res, err := p.api.CreateJob(ctx, in.Mode, req)
	if err != nil {
		p.abandon(ctx, err)
		return nil, err
	}

	job := &JobHandle{
		JobID:     res.JobID,
		Status:    res.Status,
		Mode:      in.Mode,
		Label:     label,
		CreatedAt: p.now().UnixMilli(),
	}
	p.store.Write(ctx, KeyActiveJob, job)
	p.update(func(s *JobState) { s.Job = job })
	p.log.Info("job submitted", "job_id", job.JobID, "mode", job.Mode)

	j := *job
	return &j, nil
}

func (p *JobPoller) prepare(in JobInput) (JobRequest, string, error) {
	req := JobRequest{UserEmail: p.user.Email, Label: in.Label}
	switch in.Mode {
	case ModeText:
		if strings.TrimSpace(in.Text) == "" {
			return req, "", ErrEmptyJobInput
		}
		req.Text = in.Text
		if req.Label == "" {
			req.Label = truncateRunes(in.Text, labelLength)
		}
	case ModePDF, ModeAudio:
		switch {
		case in.URL != "":
			if in.Mode == ModePDF {
				req.PDFURL = in.URL
			} else {
				req.AudioURL = in.URL
			}
			if req.Label == "" {
				req.Label = path.Base(in.URL)
			}
		case in.File != nil:
			if p.uploader == nil {
				return req, "", ErrNoUploader
			}
			if req.Label == "" {
				req.Label = in.FileName
			}
		default:
			return req, "", ErrEmptyJobInput
		}
	default:
		return req, "", fmt.Errorf("unknown job mode %q", in.Mode)
	}
	return req, req.Label, nil
}

func (p *JobPoller) abandon(ctx context.Context, err error) {
	p.store.Remove(ctx, KeyActiveJobProgress)
	p.update(func(s *JobState) { *s = JobState{Error: err.Error()} })
}

// Resume restores a job persisted by an earlier process and fetches its
// status once. It reports whether a job was found.
func (p *JobPoller) Resume(ctx context.Context) bool {
	var job JobHandle
	if !p.store.ReadInto(ctx, KeyActiveJob, &job) || job.JobID == "" {
		return false
	}
	progress := readProgress(p.store.ReadRaw(ctx, KeyActiveJobProgress))
	p.update(func(s *JobState) {
		*s = JobState{Job: &job, Progress: progress, Active: true}
	})
	p.log.Info("job resumed", "job_id", job.JobID, "progress", progress)

	res, err := p.api.JobStatus(ctx, job.JobID)
	if err != nil {
		p.log.Debug("resume status fetch failed", "job_id", job.JobID, "error", err)
		return true
	}
	p.apply(ctx, res, true)
	return true
}

// readProgress accepts both a JSON number and a numeric string.
func readProgress(raw json.RawMessage) int {
	if raw == nil {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

// Tick fetches the job status once and applies it. It reports true when
// there is nothing left to poll. Fetch errors are logged and leave the
// state untouched.
func (p *JobPoller) Tick(ctx context.Context) bool {
	job := p.State().Job
	if job == nil {
		return true
	}
	res, err := p.api.JobStatus(ctx, job.JobID)
	if err != nil {
		p.log.Debug("status fetch failed, retrying next tick", "job_id", job.JobID, "error", err)
		return false
	}
	return p.apply(ctx, res, false)
}

func (p *JobPoller) apply(ctx context.Context, res *JobStatusResponse, resumed bool) bool {
	var job JobHandle
	p.mu.Lock()
	if p.state.Job == nil {
		p.mu.Unlock()
		return true
	}
	job = *p.state.Job
	p.mu.Unlock()

	switch res.Status {
	case JobRunning:
		var next int
		p.update(func(s *JobState) {
			if s.Job != nil {
				s.Job.Status = JobRunning
			}
			switch {
			case resumed && s.Progress < resumedProgress:
				s.Progress = resumedProgress
			case !resumed && s.Progress < progressCeiling:
				s.Progress += progressStep
			}
			next = s.Progress
		})
		p.store.Write(ctx, KeyActiveJobProgress, next)
		return false

	case JobCompleted:
		p.clearPersisted(ctx)
		p.update(func(s *JobState) {
			*s = JobState{Progress: 100, ResultURL: res.URL}
		})
		p.log.Info("job completed", "job_id", job.JobID)
		p.record(ctx, job, res.URL)
		return true

	case JobFailed:
		msg := res.Error
		if msg == "" {
			msg = "Generation failed"
		}
		p.clearPersisted(ctx)
		p.update(func(s *JobState) { *s = JobState{Error: msg} })
		p.log.Warn("job failed", "job_id", job.JobID, "reason", msg)
		return true

	default:
		if res.Status != "" {
			p.update(func(s *JobState) {
				if s.Job != nil {
					s.Job.Status = res.Status
				}
			})
		}
		return false
	}
}

func (p *JobPoller) clearPersisted(ctx context.Context) {
	p.store.Remove(ctx, KeyActiveJob)
	p.store.Remove(ctx, KeyActiveJobProgress)
}

func (p *JobPoller) record(ctx context.Context, job JobHandle, url string) {
	if p.history == nil || url == "" {
		return
	}
	userID := p.user.UID
	if userID == "" {
		userID = p.user.Email
	}
	if userID == "" {
		return
	}
	rec := &VideoRecord{
		SourceType:  job.Mode,
		InputSample: job.Label,
		VideoURL:    url,
		UserID:      userID,
		Email:       p.user.Email,
		CreatedAt:   p.now(),
	}
	if err := p.history.Save(ctx, rec); err != nil {
		p.log.Error("save video record failed", "job_id", job.JobID, "error", err)
	}
}

// Run polls on the poller's schedule until the job reaches a terminal
// state or ctx is done. A call made while another Run is looping returns
// nil immediately.
func (p *JobPoller) Run(ctx context.Context) error {
	if !p.polling.CompareAndSwap(false, true) {
		return nil
	}
	defer p.polling.Store(false)

	p.schedule.Reset()
	for {
		if !p.State().Active {
			return nil
		}
		timer := time.NewTimer(p.schedule.Next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if p.Tick(ctx) {
			return nil
		}
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
