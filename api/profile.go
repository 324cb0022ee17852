package api

import (
	"encoding/json"
	"net/http"

	"github.com/openfield/crewmarket/pkg/repository"
)

// ProfileHandler exposes the caller's own capability profile. Availability is
// a worker-side switch; it does not affect requests already accepted.
type ProfileHandler struct {
	profiles repository.WorkerProfileRepo
}

func NewProfileHandler(profiles repository.WorkerProfileRepo) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.profiles.GetWorkerProfileByOwner(r.Context(), p.AccountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, profile, http.StatusOK)
}

func (h *ProfileHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in struct {
		Available bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.profiles.SetWorkerAvailability(r.Context(), p.AccountID, in.Available); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]bool{"available": in.Available}, http.StatusOK)
}
