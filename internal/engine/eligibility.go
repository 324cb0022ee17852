package engine

import "github.com/openfield/crewmarket/pkg/models"

// Capability filtering is a pure visibility rule: it restricts what a worker
// sees, and it is deliberately NOT re-checked by AcceptJob. Whether broad
// acceptance is an escape valve or a missing server-side check is an open
// product question; see DESIGN.md.

// JobVisibleTo reports whether a single open job request surfaces for the
// given capability profile.
//
// A job is visible when its work type matches the profile's declared type (or
// is general-labor), and its service type is compatible with equipment
// ownership: owners only see operator_with_equipment work, workers without
// equipment see operator_only and operator_with_equipment work.
func JobVisibleTo(j models.JobRequest, p models.WorkerProfile) bool {
	if j.WorkType != p.WorkType && j.WorkType != models.WorkTypeGeneralLabor {
		return false
	}
	if p.OwnsEquipment {
		return j.ServiceType == models.OperatorWithEquipment
	}
	return j.ServiceType == models.OperatorOnly || j.ServiceType == models.OperatorWithEquipment
}

// EligibleJobs filters open job requests down to those visible to the
// profile. Pure and side-effect free; input order is preserved.
func EligibleJobs(p models.WorkerProfile, jobs []models.JobRequest) []models.JobRequest {
	out := make([]models.JobRequest, 0, len(jobs))
	for _, j := range jobs {
		if j.Status != models.JobOpen {
			continue
		}
		if JobVisibleTo(j, p) {
			out = append(out, j)
		}
	}
	return out
}

// EligibleServiceRequests filters open service requests for a technician.
// Every technician sees every open request; quoting itself is the gate.
func EligibleServiceRequests(reqs []models.ServiceRequest) []models.ServiceRequest {
	out := make([]models.ServiceRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.Status == models.RequestOpen {
			out = append(out, r)
		}
	}
	return out
}
