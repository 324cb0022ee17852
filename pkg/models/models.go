package models

// Domain models matching the database schema in db/migrations/0001_init.sql

type Role string

const (
	RolePoster     Role = "poster"
	RoleWorker     Role = "worker"
	RoleTechnician Role = "technician"
)

func ValidRole(r Role) bool {
	switch r {
	case RolePoster, RoleWorker, RoleTechnician:
		return true
	default:
		return false
	}
}

type JobStatus string

const (
	JobOpen      JobStatus = "Open"
	JobAssigned  JobStatus = "Assigned"
	JobCompleted JobStatus = "Completed"
	JobCancelled JobStatus = "Cancelled"
)

func ValidJobStatus(s JobStatus) bool {
	switch s {
	case JobOpen, JobAssigned, JobCompleted, JobCancelled:
		return true
	default:
		return false
	}
}

type ServiceType string

const (
	OperatorWithEquipment ServiceType = "operator_with_equipment"
	EquipmentOnly         ServiceType = "equipment_only"
	OperatorOnly          ServiceType = "operator_only"
)

func ValidServiceType(t ServiceType) bool {
	switch t {
	case OperatorWithEquipment, EquipmentOnly, OperatorOnly:
		return true
	default:
		return false
	}
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

func ValidUrgency(u Urgency) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	default:
		return false
	}
}

// WorkType is the closed set of equipment/skill categories a request or a
// worker profile can carry. WorkTypeGeneralLabor is visible to every worker
// regardless of their declared category.
type WorkType string

const (
	WorkTypeBackhoe      WorkType = "backhoe"
	WorkTypeExcavator    WorkType = "excavator"
	WorkTypeCrane        WorkType = "crane"
	WorkTypeDumpTruck    WorkType = "dump-truck"
	WorkTypeLoader       WorkType = "loader"
	WorkTypeGrader       WorkType = "grader"
	WorkTypeMason        WorkType = "mason"
	WorkTypeElectrician  WorkType = "electrician"
	WorkTypePlumber      WorkType = "plumber"
	WorkTypeGeneralLabor WorkType = "general-labor"
)

func ValidWorkType(t WorkType) bool {
	switch t {
	case WorkTypeBackhoe, WorkTypeExcavator, WorkTypeCrane, WorkTypeDumpTruck,
		WorkTypeLoader, WorkTypeGrader, WorkTypeMason, WorkTypeElectrician,
		WorkTypePlumber, WorkTypeGeneralLabor:
		return true
	default:
		return false
	}
}

type RequestStatus string

const (
	RequestOpen      RequestStatus = "Open"
	RequestClosed    RequestStatus = "Closed"
	RequestCancelled RequestStatus = "Cancelled"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestOpen, RequestClosed, RequestCancelled:
		return true
	default:
		return false
	}
}

type QuoteStatus string

const (
	QuotePending  QuoteStatus = "Pending"
	QuoteAccepted QuoteStatus = "Accepted"
	QuoteRejected QuoteStatus = "Rejected"
)

func ValidQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuotePending, QuoteAccepted, QuoteRejected:
		return true
	default:
		return false
	}
}

type Account struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	Role         Role   `json:"role" db:"role"`
	PasswordHash string `json:"-" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
}

// JobRequest is an open call for a worker and/or a piece of equipment.
// AssignedWorkerID is non-nil exactly when Status is Assigned or Completed,
// and once set it never changes to a different worker.
type JobRequest struct {
	ID               int64       `json:"id" db:"id"`
	PosterID         int64       `json:"poster_id" db:"poster_id"`
	WorkType         WorkType    `json:"work_type" db:"work_type" validate:"required"`
	ServiceType      ServiceType `json:"service_type" db:"service_type" validate:"required"`
	Location         string      `json:"location" db:"location" validate:"required"`
	ScheduledAt      int64       `json:"scheduled_at" db:"scheduled_at" validate:"required"`
	Urgency          Urgency     `json:"urgency" db:"urgency"`
	Status           JobStatus   `json:"status" db:"status"`
	AssignedWorkerID *int64      `json:"assigned_worker_id,omitempty" db:"assigned_worker_id"`
	Detail           JobDetail   `json:"detail" db:"detail"`
	Created          int64       `json:"created" db:"created"`
}

// WorkerProfile is a worker's declared capability plus their rating
// aggregate. The aggregate is mutated only inside the same transaction that
// records a Rating.
type WorkerProfile struct {
	ID            int64    `json:"id" db:"id"`
	OwnerID       int64    `json:"owner_id" db:"owner_id"`
	WorkType      WorkType `json:"work_type" db:"work_type"`
	OwnsEquipment bool     `json:"owns_equipment" db:"owns_equipment"`
	Available     bool     `json:"available" db:"available"`
	RatingMean    float64  `json:"rating_mean" db:"rating_mean"`
	RatingCount   int64    `json:"rating_count" db:"rating_count"`
}

// ServiceRequest is a maintenance/repair call technicians quote against.
// Attachment URLs are opaque; they are stored and returned verbatim.
type ServiceRequest struct {
	ID              int64         `json:"id" db:"id"`
	PosterID        int64         `json:"poster_id" db:"poster_id"`
	EquipmentType   string        `json:"equipment_type" db:"equipment_type" validate:"required"`
	MaintenanceType string        `json:"maintenance_type" db:"maintenance_type" validate:"required"`
	Location        string        `json:"location" db:"location" validate:"required"`
	Urgency         Urgency       `json:"urgency" db:"urgency"`
	Status          RequestStatus `json:"status" db:"status"`
	BudgetMin       *float64      `json:"budget_min,omitempty" db:"budget_min"`
	BudgetMax       *float64      `json:"budget_max,omitempty" db:"budget_max"`
	Attachments     []string      `json:"attachments,omitempty" db:"attachments"`
	Created         int64         `json:"created" db:"created"`
}

// Quote is a technician's priced offer on an open ServiceRequest. At most one
// quote per request ever reaches Accepted, and a provider holds at most one
// live (Pending or Accepted) quote per request.
type Quote struct {
	ID                int64       `json:"id" db:"id"`
	RequestID         int64       `json:"request_id" db:"request_id"`
	ProviderID        int64       `json:"provider_id" db:"provider_id"`
	Price             float64     `json:"price" db:"price" validate:"required,gt=0"`
	Description       string      `json:"description" db:"description"`
	EstimatedDuration string      `json:"estimated_duration" db:"estimated_duration"`
	Status            QuoteStatus `json:"status" db:"status"`
	Created           int64       `json:"created" db:"created"`
}

// Rating is recorded once per (engagement, rater) and never mutated.
type Rating struct {
	ID           int64  `json:"id" db:"id"`
	EngagementID string `json:"engagement_id" db:"engagement_id"`
	SubjectID    int64  `json:"subject_id" db:"subject_id"`
	RaterID      int64  `json:"rater_id" db:"rater_id"`
	Score        int    `json:"score" db:"score" validate:"required,min=1,max=5"`
	Review       string `json:"review,omitempty" db:"review"`
	Created      int64  `json:"created" db:"created"`
}
