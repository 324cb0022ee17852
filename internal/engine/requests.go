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

// Requests is the service request service, quote marketplace and resolution
// engine: posters open maintenance/repair requests, technicians bid on them,
// and AcceptQuote collapses the bids down to a single winner atomically.
type Requests struct {
	repo     repository.ServiceRequestRepo
	quotes   repository.QuoteRepo
	validate *validator.Validate
	bus      *Bus
	logger   *slog.Logger
}

func NewRequests(repo repository.ServiceRequestRepo, quotes repository.QuoteRepo, bus *Bus, logger *slog.Logger) *Requests {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requests{
		repo:     repo,
		quotes:   quotes,
		validate: validator.New(),
		bus:      bus,
		logger:   logger,
	}
}

// OpenServiceRequestInput carries the poster-supplied fields of a new
// service request.
type OpenServiceRequestInput struct {
	EquipmentType   string         `json:"equipment_type"`
	MaintenanceType string         `json:"maintenance_type"`
	Location        string         `json:"location"`
	Urgency         models.Urgency `json:"urgency"`
	BudgetMin       *float64       `json:"budget_min,omitempty"`
	BudgetMax       *float64       `json:"budget_max,omitempty"`
	Attachments     []string       `json:"attachments,omitempty"`
}

// OpenServiceRequest validates the input and persists an Open request.
// Attachment URLs are opaque and stored verbatim.
func (s *Requests) OpenServiceRequest(ctx context.Context, posterID int64, in OpenServiceRequestInput) (*models.ServiceRequest, error) {
	if in.Urgency == "" {
		in.Urgency = models.UrgencyMedium
	}
	if !models.ValidUrgency(in.Urgency) {
		return nil, validationErr("urgency", fmt.Sprintf("unrecognized value %q", in.Urgency))
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return nil, validationErr("budget_min", "exceeds budget_max")
	}

	r := &models.ServiceRequest{
		PosterID:        posterID,
		EquipmentType:   in.EquipmentType,
		MaintenanceType: in.MaintenanceType,
		Location:        in.Location,
		Urgency:         in.Urgency,
		Status:          models.RequestOpen,
		BudgetMin:       in.BudgetMin,
		BudgetMax:       in.BudgetMax,
		Attachments:     in.Attachments,
		Created:         time.Now().UTC().Unix(),
	}
	if err := s.validate.Struct(r); err != nil {
		if ferrs, ok := err.(validator.ValidationErrors); ok && len(ferrs) > 0 {
			return nil, validationErr(ferrs[0].Field(), "is missing or malformed")
		}
		return nil, validationErr("", err.Error())
	}

	id, err := s.repo.CreateServiceRequest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create service request: %w", err)
	}
	r.ID = id

	s.logger.Info("service request opened", slog.Int64("id", id), slog.Int64("poster", posterID))
	return r, nil
}

// GetServiceRequest returns a single request by id.
func (s *Requests) GetServiceRequest(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	return s.repo.GetServiceRequest(ctx, id)
}

// ListOpen returns open service requests; every technician sees every open
// request, quoting itself is the gate.
func (s *Requests) ListOpen(ctx context.Context, limit, offset int) ([]models.ServiceRequest, error) {
	open, err := s.repo.ListOpenServiceRequests(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return EligibleServiceRequests(open), nil
}

// CancelServiceRequest cancels an Open request on behalf of its poster.
func (s *Requests) CancelServiceRequest(ctx context.Context, id, callerID int64) error {
	return s.repo.CancelServiceRequest(ctx, id, callerID)
}

// SubmitQuoteInput carries a provider's bid on an open service request.
type SubmitQuoteInput struct {
	Price             float64 `json:"price"`
	Description       string  `json:"description"`
	EstimatedDuration string  `json:"estimated_duration"`
}

// SubmitQuote places a Pending bid. Many quotes may be created concurrently;
// they are independent rows, so no single-winner race exists here. The
// storage layer enforces the open-parent precondition and the one-live-bid-
// per-provider rule.
func (s *Requests) SubmitQuote(ctx context.Context, providerID, requestID int64, in SubmitQuoteInput) (*models.Quote, error) {
	q := &models.Quote{
		RequestID:         requestID,
		ProviderID:        providerID,
		Price:             in.Price,
		Description:       in.Description,
		EstimatedDuration: in.EstimatedDuration,
		Status:            models.QuotePending,
		Created:           time.Now().UTC().Unix(),
	}
	if err := s.validate.Struct(q); err != nil {
		if ferrs, ok := err.(validator.ValidationErrors); ok && len(ferrs) > 0 {
			return nil, validationErr(ferrs[0].Field(), "is missing or malformed")
		}
		return nil, validationErr("", err.Error())
	}

	id, err := s.quotes.SubmitQuote(ctx, q)
	if err != nil {
		return nil, err
	}
	q.ID = id

	s.logger.Info("quote submitted",
		slog.Int64("id", id),
		slog.Int64("request", requestID),
		slog.Int64("provider", providerID),
	)
	return q, nil
}

// ListQuotes returns the quotes on a request to its poster, submission time
// ascending by default (price ascending as the documented secondary view).
func (s *Requests) ListQuotes(ctx context.Context, requestID, callerID int64, orderByPrice bool) ([]models.Quote, error) {
	r, err := s.repo.GetServiceRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.PosterID != callerID {
		return nil, repository.ErrForbidden
	}

	return s.quotes.ListQuotesByRequest(ctx, requestID, orderByPrice)
}

// AcceptQuote resolves the marketplace for one request: the winning quote is
// Accepted, every still-Pending rival is Rejected and the request Closes, all
// in one storage transaction. QuoteAccepted is announced exactly once, only
// by the caller whose transaction closed the Open row.
func (s *Requests) AcceptQuote(ctx context.Context, quoteID, callerID int64) (*models.ServiceRequest, error) {
	r, q, err := s.quotes.AcceptQuote(ctx, quoteID, callerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote accepted",
		slog.Int64("quote", q.ID),
		slog.Int64("request", r.ID),
		slog.Int64("provider", q.ProviderID),
	)
	s.bus.publish(EventQuoteAccepted, models.ServiceEngagementID(r.ID), q.ProviderID, r.PosterID)
	return r, nil
}
