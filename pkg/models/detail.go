package models

import (
	"encoding/json"
	"fmt"
)

// DetailKind tags the variant payload carried by JobRequest.Detail.
type DetailKind string

const (
	DetailStandard     DetailKind = "standard"
	DetailSandDelivery DetailKind = "sand_delivery"
	DetailHaulage      DetailKind = "haulage"
)

func ValidDetailKind(k DetailKind) bool {
	switch k {
	case DetailStandard, DetailSandDelivery, DetailHaulage:
		return true
	default:
		return false
	}
}

// SandDelivery carries the structured payload of a bulk-material delivery
// job, replacing the free-text notes it used to be smuggled in.
type SandDelivery struct {
	Quantity float64 `json:"quantity"`
	Material string  `json:"material"`
}

// Haulage carries the payload of a point-to-point haul job.
type Haulage struct {
	DistanceKM float64 `json:"distance_km"`
	Cargo      string  `json:"cargo"`
}

// JobDetail is a tagged variant: exactly the field matching Kind is set.
// It is parsed and validated once at the system boundary; consumers get a
// typed value, never a speculative reparse.
type JobDetail struct {
	Kind         DetailKind    `json:"kind"`
	Notes        string        `json:"notes,omitempty"`
	SandDelivery *SandDelivery `json:"sand_delivery,omitempty"`
	Haulage      *Haulage      `json:"haulage,omitempty"`
}

// StandardDetail is the zero-payload variant used when a job carries no
// structured extras.
func StandardDetail(notes string) JobDetail {
	return JobDetail{Kind: DetailStandard, Notes: notes}
}

// Validate checks that the payload matches the tag.
func (d JobDetail) Validate() error {
	if !ValidDetailKind(d.Kind) {
		return fmt.Errorf("unknown detail kind %q", d.Kind)
	}
	switch d.Kind {
	case DetailSandDelivery:
		if d.SandDelivery == nil {
			return fmt.Errorf("detail kind %q requires a sand_delivery payload", d.Kind)
		}
		if d.Haulage != nil {
			return fmt.Errorf("detail kind %q carries a stray haulage payload", d.Kind)
		}
	case DetailHaulage:
		if d.Haulage == nil {
			return fmt.Errorf("detail kind %q requires a haulage payload", d.Kind)
		}
		if d.SandDelivery != nil {
			return fmt.Errorf("detail kind %q carries a stray sand_delivery payload", d.Kind)
		}
	case DetailStandard:
		if d.SandDelivery != nil || d.Haulage != nil {
			return fmt.Errorf("detail kind %q must not carry a structured payload", d.Kind)
		}
	}
	return nil
}

// UnmarshalJSON defaults an absent or empty kind to standard so legacy rows
// without a detail column value still decode.
func (d *JobDetail) UnmarshalJSON(b []byte) error {
	type alias JobDetail
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if a.Kind == "" {
		a.Kind = DetailStandard
	}
	*d = JobDetail(a)
	return nil
}

// JobEngagementID is the engagement key of a completed JobRequest.
func JobEngagementID(jobID int64) string {
	return fmt.Sprintf("job:%d", jobID)
}

// ServiceEngagementID is the engagement key of a resolved
// ServiceRequest/Quote pair.
func ServiceEngagementID(requestID int64) string {
	return fmt.Sprintf("svc:%d", requestID)
}
