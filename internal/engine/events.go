package engine

import (
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

// EventType names a domain transition the engine announces to collaborators.
type EventType string

const (
	EventJobCompleted  EventType = "job.completed"
	EventQuoteAccepted EventType = "quote.accepted"
)

// Event is emitted exactly once per successful transition, driven by the
// conditional write's outcome: only the caller whose UPDATE matched the row
// publishes. The engine owns emission, not delivery.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Engagement string    `json:"engagement_id"`
	SubjectID  int64     `json:"subject_id"`
	PosterID   int64     `json:"poster_id"`
	OccurredAt int64     `json:"occurred_at"`
}

// Subscriber receives events synchronously on the emitting goroutine.
// Handlers must be quick; anything slow belongs on the background job queue.
type Subscriber func(Event)

// Bus is a minimal in-process fan-out of domain events.
type Bus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

func (b *Bus) publish(typ EventType, engagement string, subjectID, posterID int64) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Engagement: engagement,
		SubjectID:  subjectID,
		PosterID:   posterID,
		OccurredAt: time.Now().UTC().Unix(),
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	b.logger.Info("event", slog.String("type", string(typ)), slog.String("engagement", engagement))
	for _, s := range subs {
		s(ev)
	}
}
