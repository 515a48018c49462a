package vikasyatra

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Backend when a key has no value.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by a Backend that refuses a write past its capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	ErrOffline      = errors.New("offline")
	ErrNoRemoteData = errors.New("no data found")

	ErrJobDescriptionRequired = errors.New("job description is required")
	ErrResumeInputRequired    = errors.New("provide resume text or upload a file")
	ErrUnsupportedResume      = errors.New("only pdf and docx resumes are supported")

	ErrEmptyJobInput = errors.New("job input is empty")
	ErrNoUploader    = errors.New("no media uploader configured")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
