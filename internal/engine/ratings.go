package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

// Ratings is the rating ledger: one rating per (engagement, rater), with the
// subject's running (mean, count) aggregate folded in under the same
// transaction as the insert so concurrent ratings never lose updates.
type Ratings struct {
	repo     repository.RatingRepo
	jobs     repository.JobRequestRepo
	requests repository.ServiceRequestRepo
	quotes   repository.QuoteRepo
	logger   *slog.Logger
}

func NewRatings(repo repository.RatingRepo, jobs repository.JobRequestRepo, requests repository.ServiceRequestRepo, quotes repository.QuoteRepo, logger *slog.Logger) *Ratings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ratings{repo: repo, jobs: jobs, requests: requests, quotes: quotes, logger: logger}
}

// SubmitRatingInput carries one party's review of a finished engagement.
type SubmitRatingInput struct {
	EngagementID string `json:"engagement_id"`
	SubjectID    int64  `json:"subject_id"`
	Score        int    `json:"score"`
	Review       string `json:"review,omitempty"`
}

// SubmitRating verifies the engagement is finished and the rater was a party
// to it, then records the rating. A second rating by the same rater on the
// same engagement fails with DuplicateSubmission.
func (s *Ratings) SubmitRating(ctx context.Context, raterID int64, in SubmitRatingInput) (*models.Rating, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, validationErr("score", "must be between 1 and 5")
	}
	if in.SubjectID == raterID {
		return nil, validationErr("subject_id", "cannot rate yourself")
	}

	if err := s.checkEngagement(ctx, in.EngagementID, raterID, in.SubjectID); err != nil {
		return nil, err
	}

	rt := &models.Rating{
		EngagementID: in.EngagementID,
		SubjectID:    in.SubjectID,
		RaterID:      raterID,
		Score:        in.Score,
		Review:       in.Review,
		Created:      time.Now().UTC().Unix(),
	}
	id, err := s.repo.SubmitRating(ctx, rt)
	if err != nil {
		return nil, err
	}
	rt.ID = id

	s.logger.Info("rating recorded",
		slog.String("engagement", in.EngagementID),
		slog.Int64("subject", in.SubjectID),
		slog.Int("score", in.Score),
	)
	return rt, nil
}

// ListBySubject returns a subject's ratings, newest first.
func (s *Ratings) ListBySubject(ctx context.Context, subjectID int64, limit, offset int) ([]models.Rating, error) {
	return s.repo.ListRatingsBySubject(ctx, subjectID, limit, offset)
}

// checkEngagement resolves an engagement key to its finished job or service
// request and verifies rater and subject are its two parties.
func (s *Ratings) checkEngagement(ctx context.Context, engagementID string, raterID, subjectID int64) error {
	kind, rawID, ok := strings.Cut(engagementID, ":")
	if !ok {
		return validationErr("engagement_id", "must be job:<id> or svc:<id>")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return validationErr("engagement_id", "must carry a numeric id")
	}

	switch kind {
	case "job":
		j, err := s.jobs.GetJobRequest(ctx, id)
		if err != nil {
			return err
		}
		if j.Status != models.JobCompleted {
			return repository.ErrInvalidStateTransition
		}
		if !isPair(raterID, subjectID, j.PosterID, *j.AssignedWorkerID) {
			return repository.ErrForbidden
		}
	case "svc":
		r, err := s.requests.GetServiceRequest(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != models.RequestClosed {
			return repository.ErrInvalidStateTransition
		}
		accepted, err := s.acceptedProvider(ctx, id)
		if err != nil {
			return err
		}
		if !isPair(raterID, subjectID, r.PosterID, accepted) {
			return repository.ErrForbidden
		}
	default:
		return validationErr("engagement_id", "must be job:<id> or svc:<id>")
	}

	return nil
}

func (s *Ratings) acceptedProvider(ctx context.Context, requestID int64) (int64, error) {
	quotes, err := s.quotes.ListQuotesByRequest(ctx, requestID, false)
	if err != nil {
		return 0, err
	}
	for _, q := range quotes {
		if q.Status == models.QuoteAccepted {
			return q.ProviderID, nil
		}
	}
	// Closed without an accepted quote cannot happen through AcceptQuote
	return 0, repository.ErrInvalidStateTransition
}

// isPair reports whether {rater, subject} is exactly {a, b} in either order.
func isPair(raterID, subjectID, a, b int64) bool {
	return (raterID == a && subjectID == b) || (raterID == b && subjectID == a)
}
