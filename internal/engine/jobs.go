package engine

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

// Jobs is the job posting service and assignment coordinator: it creates
// open job requests, exposes them through the capability filter, and resolves
// the single-winner acceptance race via the repository's conditional writes.
type Jobs struct {
	repo     repository.JobRequestRepo
	profiles repository.WorkerProfileRepo
	details  *DetailValidator
	validate *validator.Validate
	bus      *Bus
	logger   *slog.Logger
}

func NewJobs(repo repository.JobRequestRepo, profiles repository.WorkerProfileRepo, details *DetailValidator, bus *Bus, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		repo:     repo,
		profiles: profiles,
		details:  details,
		validate: validator.New(),
		bus:      bus,
		logger:   logger,
	}
}

// CreateJobInput carries the poster-supplied fields of a new job request.
type CreateJobInput struct {
	WorkType    models.WorkType    `json:"work_type"`
	ServiceType models.ServiceType `json:"service_type"`
	Location    string             `json:"location"`
	ScheduledAt int64              `json:"scheduled_at"`
	Urgency     models.Urgency     `json:"urgency"`
	Detail      *models.JobDetail  `json:"detail,omitempty"`
}

// CreateJobRequest validates the input and persists an Open request,
// immediately visible to the capability filter.
func (s *Jobs) CreateJobRequest(ctx context.Context, posterID int64, in CreateJobInput) (*models.JobRequest, error) {
	if !models.ValidWorkType(in.WorkType) {
		return nil, validationErr("work_type", fmt.Sprintf("unrecognized value %q", in.WorkType))
	}
	if !models.ValidServiceType(in.ServiceType) {
		return nil, validationErr("service_type", fmt.Sprintf("unrecognized value %q", in.ServiceType))
	}
	if in.Urgency == "" {
		in.Urgency = models.UrgencyMedium
	}
	if !models.ValidUrgency(in.Urgency) {
		return nil, validationErr("urgency", fmt.Sprintf("unrecognized value %q", in.Urgency))
	}

	detail := models.StandardDetail("")
	if in.Detail != nil {
		detail = *in.Detail
	}
	if err := s.details.Validate(ctx, detail); err != nil {
		return nil, err
	}

	j := &models.JobRequest{
		PosterID:    posterID,
		WorkType:    in.WorkType,
		ServiceType: in.ServiceType,
		Location:    in.Location,
		ScheduledAt: in.ScheduledAt,
		Urgency:     in.Urgency,
		Status:      models.JobOpen,
		Detail:      detail,
		Created:     time.Now().UTC().Unix(),
	}
	if err := s.validate.Struct(j); err != nil {
		if ferrs, ok := err.(validator.ValidationErrors); ok && len(ferrs) > 0 {
			return nil, validationErr(ferrs[0].Field(), "is missing or malformed")
		}
		return nil, validationErr("", err.Error())
	}

	id, err := s.repo.CreateJobRequest(ctx, j)
	if err != nil {
		return nil, fmt.Errorf("create job request: %w", err)
	}
	j.ID = id

	s.logger.Info("job request created",
		slog.Int64("id", id),
		slog.Int64("poster", posterID),
		slog.String("work_type", string(j.WorkType)),
	)
	return j, nil
}

// GetJob returns a single request by id.
func (s *Jobs) GetJob(ctx context.Context, id int64) (*models.JobRequest, error) {
	return s.repo.GetJobRequest(ctx, id)
}

// ListEligible returns the open requests visible to the worker's capability
// profile, applying the pure filter to the repo's open listing.
func (s *Jobs) ListEligible(ctx context.Context, workerID int64, limit, offset int) ([]models.JobRequest, error) {
	profile, err := s.profiles.GetWorkerProfileByOwner(ctx, workerID)
	if err != nil {
		return nil, err
	}

	open, err := s.repo.ListOpenJobRequests(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	return EligibleJobs(*profile, open), nil
}

// AcceptJob resolves the single-winner race. The outcome is decided entirely
// by the storage layer's conditional write; a loss is definitive and is never
// retried here. Capability is not re-verified at acceptance.
func (s *Jobs) AcceptJob(ctx context.Context, id, workerID int64) (*models.JobRequest, error) {
	j, err := s.repo.AcceptJob(ctx, id, workerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("job assigned", slog.Int64("id", id), slog.Int64("worker", workerID))
	return j, nil
}

// CompleteJob moves an Assigned request to Completed on behalf of its poster
// and announces JobCompleted exactly once, keyed off the write's success.
func (s *Jobs) CompleteJob(ctx context.Context, id, callerID int64) (*models.JobRequest, error) {
	j, err := s.repo.CompleteJob(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	s.bus.publish(EventJobCompleted, models.JobEngagementID(id), *j.AssignedWorkerID, j.PosterID)
	return j, nil
}

// CancelJobRequest cancels an Open request on behalf of its poster.
func (s *Jobs) CancelJobRequest(ctx context.Context, id, callerID int64) error {
	return s.repo.CancelJobRequest(ctx, id, callerID)
}
