package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Background job types processed by the worker pool. The engine's state
// machine never blocks on these; handlers only consume the domain events the
// engine has already committed.
const (
	// TypeRatingPrompt asks the notification collaborator to prompt both
	// parties of a finished engagement for a rating.
	TypeRatingPrompt = "notify.rating_prompt"

	// TypeStaleSweep cancels Open requests older than the configured max
	// age. Enqueued on a schedule by the Sweeper, never by the engine.
	TypeStaleSweep = "sweep.stale_requests"
)

// Job represents a queued background job
type Job struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

// RatingPromptPayload is the payload of a TypeRatingPrompt job.
type RatingPromptPayload struct {
	EventID      string `json:"event_id"`
	EngagementID string `json:"engagement_id"`
	SubjectID    int64  `json:"subject_id"`
	PosterID     int64  `json:"poster_id"`
}

// Handler is the function that processes a job
type Handler func(ctx context.Context, j *Job) error

// BackoffDuration returns exponential backoff duration for attempt n
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	max := 5 * time.Minute
	if d > max {
		return max
	}
	return d
}
