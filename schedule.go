package vikasyatra

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultPollInterval is the gap between job status polls.
const DefaultPollInterval = 5 * time.Second

// Schedule decides how long the poller waits before each status fetch.
type Schedule interface {
	Next() time.Duration
	Reset()
}

// FixedSchedule waits the same interval every time.
type FixedSchedule time.Duration

func (f FixedSchedule) Next() time.Duration { return time.Duration(f) }
func (FixedSchedule) Reset() {}

// BackoffSchedule grows the interval exponentially up to a cap.
type BackoffSchedule struct {
	b *backoff.ExponentialBackOff
}

// NewBackoffSchedule starts at initial and doubles (with 20% jitter) up to maxInterval.
func NewBackoffSchedule(initial, maxInterval time.Duration) *BackoffSchedule {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0.2
	b.Reset()
	return &BackoffSchedule{b: b}
}

// WithoutJitter makes the sequence deterministic.
func (s *BackoffSchedule) WithoutJitter() *BackoffSchedule {
	s.b.RandomizationFactor = 0
	return s
}

func (s *BackoffSchedule) Next() time.Duration { return s.b.NextBackOff() }

func (s *BackoffSchedule) Reset() { s.b.Reset() }
