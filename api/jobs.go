package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/openfield/crewmarket/internal/engine"
)

type JobsHandler struct {
	jobs *engine.Jobs
}

func NewJobsHandler(jobs *engine.Jobs) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in engine.CreateJobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	j, err := h.jobs.CreateJobRequest(r.Context(), p.AccountID, in)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, j, http.StatusCreated)
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.jobs.GetJob(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, j, http.StatusOK)
}

// ListEligible surfaces the open requests the caller's capability profile
// may see. Visibility only; acceptance is not re-gated on it.
func (h *JobsHandler) ListEligible(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, offset := pagination(r)
	items, err := h.jobs.ListEligible(r.Context(), p.AccountID, limit, offset)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]any{"items": items, "limit": limit, "offset": offset}, http.StatusOK)
}

func (h *JobsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.jobs.AcceptJob(r.Context(), id, p.AccountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, j, http.StatusOK)
}

func (h *JobsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.jobs.CompleteJob(r.Context(), id, p.AccountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, j, http.StatusOK)
}

func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.jobs.CancelJobRequest(r.Context(), id, p.AccountID); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "cancelled"}, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset = 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
