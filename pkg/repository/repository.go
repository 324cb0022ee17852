package repository

import (
	"context"

	"github.com/openfield/crewmarket/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Every state transition below is an atomic conditional write keyed on the
// row's current status. Implementations must provide true compare-and-swap
// semantics (a single transaction with a status predicate on the UPDATE),
// never a read-then-write pair.

type AccountRepo interface {
	CreateAccount(ctx context.Context, a *models.Account) (int64, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type WorkerProfileRepo interface {
	CreateWorkerProfile(ctx context.Context, p *models.WorkerProfile) (int64, error)
	GetWorkerProfileByOwner(ctx context.Context, ownerID int64) (*models.WorkerProfile, error)
	SetWorkerAvailability(ctx context.Context, ownerID int64, available bool) error
}

type JobRequestRepo interface {
	CreateJobRequest(ctx context.Context, j *models.JobRequest) (int64, error)
	GetJobRequest(ctx context.Context, id int64) (*models.JobRequest, error)
	ListOpenJobRequests(ctx context.Context, limit, offset int) ([]models.JobRequest, error)

	// AcceptJob sets status=Assigned and the worker id iff the row is still
	// Open. Exactly one concurrent caller wins; losers get
	// ErrAlreadyAssigned, an unknown id gets ErrNotFound.
	AcceptJob(ctx context.Context, id, workerID int64) (*models.JobRequest, error)

	// CompleteJob moves Assigned -> Completed for the owning poster.
	CompleteJob(ctx context.Context, id, callerID int64) (*models.JobRequest, error)

	// CancelJobRequest moves Open -> Cancelled for the owning poster.
	CancelJobRequest(ctx context.Context, id, callerID int64) error

	// CancelStaleJobRequests cancels Open rows created before cutoff and
	// returns how many were swept.
	CancelStaleJobRequests(ctx context.Context, cutoff int64) (int64, error)
}

type ServiceRequestRepo interface {
	CreateServiceRequest(ctx context.Context, s *models.ServiceRequest) (int64, error)
	GetServiceRequest(ctx context.Context, id int64) (*models.ServiceRequest, error)
	ListOpenServiceRequests(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error)
	CancelServiceRequest(ctx context.Context, id, callerID int64) error
	CancelStaleServiceRequests(ctx context.Context, cutoff int64) (int64, error)
}

type QuoteRepo interface {
	// SubmitQuote inserts a Pending quote iff the parent request is still
	// Open (ErrInvalidStateTransition otherwise) and the provider holds no
	// live quote on it (ErrDuplicateSubmission otherwise).
	SubmitQuote(ctx context.Context, q *models.Quote) (int64, error)

	GetQuote(ctx context.Context, id int64) (*models.Quote, error)

	// ListQuotesByRequest orders by submission time ascending; pass
	// orderByPrice for the price-ascending secondary view.
	ListQuotesByRequest(ctx context.Context, requestID int64, orderByPrice bool) ([]models.Quote, error)

	// AcceptQuote runs the whole resolution as one transaction: verify the
	// caller is the poster, close the Open parent (the CAS gate; losers get
	// ErrAlreadyResolved), accept the target quote and reject every other
	// Pending quote on the request.
	AcceptQuote(ctx context.Context, quoteID, callerID int64) (*models.ServiceRequest, *models.Quote, error)
}

type RatingRepo interface {
	// SubmitRating inserts the rating and folds the score into the subject's
	// (mean, count) aggregate in the same transaction. A second rating by the
	// same rater on the same engagement gets ErrDuplicateSubmission.
	SubmitRating(ctx context.Context, rt *models.Rating) (int64, error)

	ListRatingsBySubject(ctx context.Context, subjectID int64, limit, offset int) ([]models.Rating, error)
}
