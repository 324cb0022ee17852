package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/openfield/crewmarket/internal/engine"
)

// RatingPromptSubscriber bridges the engine's domain events onto the job
// queue: each committed JobCompleted/QuoteAccepted event becomes one queued
// rating prompt. The engine owns exactly-once emission; the queue owns
// retries from here on.
func RatingPromptSubscriber(pool *WorkerPool, logger *slog.Logger) engine.Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ev engine.Event) {
		payload := RatingPromptPayload{
			EventID:      ev.ID,
			EngagementID: ev.Engagement,
			SubjectID:    ev.SubjectID,
			PosterID:     ev.PosterID,
		}
		if _, err := pool.Enqueue(context.Background(), TypeRatingPrompt, payload, 100, 3); err != nil {
			logger.Error("enqueue rating prompt", "engagement", ev.Engagement, "err", err)
		}
	}
}

// RatingPromptHandler hands the prompt to the notification collaborator.
// Delivery itself is outside the engine; this handler only records that both
// parties are due a prompt.
func RatingPromptHandler(logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, j *Job) error {
		var p RatingPromptPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return fmt.Errorf("decode rating prompt payload: %w", err)
		}
		if p.EngagementID == "" {
			return fmt.Errorf("rating prompt without engagement id")
		}

		logger.Info("rating prompt due",
			slog.String("engagement", p.EngagementID),
			slog.Int64("subject", p.SubjectID),
			slog.Int64("poster", p.PosterID),
		)
		return nil
	}
}
