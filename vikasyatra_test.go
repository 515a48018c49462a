package vikasyatra

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	c := NewClient(WithBaseURL("http://example.com/"))
	assert.Equal(t, "http://example.com", c.BaseURL())

	c = NewClient(WithEnvironment(Production))
	assert.Equal(t, environments[Production], c.BaseURL())

	c = NewClient(WithEnvironment("staging"))
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClientSendsTokenAndDecodesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "a@b.c", r.URL.Query().Get("user_email"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"User not found"}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithToken("tok"))
	_, err := c.Stats().UserStats(context.Background(), "a@b.c")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.Equal(t, "http 404: User not found", err.Error())
}

func TestHealth(t *testing.T) {
	status := "ok"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(HealthStatus{Status: status})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	assert.NoError(t, c.Health(context.Background()))

	status = "degraded"
	assert.Error(t, c.Health(context.Background()))
}

func TestAnalyzeValidatesBeforeRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	resume := NewClient(WithBaseURL(srv.URL)).Resume()
	ctx := context.Background()

	// both missing reports the job description first
	_, err := resume.Analyze(ctx, AnalyzeRequest{})
	assert.ErrorIs(t, err, ErrJobDescriptionRequired)

	_, err = resume.Analyze(ctx, AnalyzeRequest{JobDescription: "Go developer"})
	assert.ErrorIs(t, err, ErrResumeInputRequired)

	_, err = resume.Analyze(ctx, AnalyzeRequest{ResumeText: "  ", JobDescription: "Go developer"})
	assert.ErrorIs(t, err, ErrResumeInputRequired)

	_, err = resume.AnalyzeFile(ctx, "cv.txt", "Go developer")
	assert.ErrorIs(t, err, ErrUnsupportedResume)

	_, err = resume.AnalyzeFile(ctx, "cv.pdf", " ")
	assert.ErrorIs(t, err, ErrJobDescriptionRequired)

	assert.Equal(t, int32(0), hits.Load())
}

func TestAnalyzeFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/resume/upload":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			f, hdr, err := r.FormFile("resume")
			require.NoError(t, err)
			defer f.Close()
			body, _ := io.ReadAll(f)
			assert.Equal(t, "cv.docx", hdr.Filename)
			assert.Equal(t, "docx bytes", string(body))
			_, _ = io.WriteString(w, `{"public_id":"resumes/abc","secure_url":"https://res.example.com/abc"}`)
		case "/api/resume/analyze":
			var req AnalyzeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, AnalyzeRequest{PublicID: "resumes/abc", FileFormat: "docx", JobDescription: "Go developer"}, req)
			_, _ = io.WriteString(w, `{"analysis":{"match_score":72,"summary":"solid","strengths":["Go"],"improvements":["Kubernetes"]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx bytes"), 0o600))

	res, err := NewClient(WithBaseURL(srv.URL)).Resume().AnalyzeFile(context.Background(), path, "Go developer")
	require.NoError(t, err)
	assert.Equal(t, 72.0, res.MatchScore)
	assert.Equal(t, []string{"Go"}, res.Strengths)
	assert.Equal(t, []string{"Kubernetes"}, res.Improvements)
}

func TestCreateJobRejectsUnknownMode(t *testing.T) {
	_, err := NewClient(WithBaseURL("http://127.0.0.1:1")).Visual().CreateJob(context.Background(), "video", JobRequest{Text: "x"})
	assert.ErrorContains(t, err, "unknown job mode")
}
