package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openfield/crewmarket/internal/engine"
)

type RatingsHandler struct {
	ratings *engine.Ratings
}

func NewRatingsHandler(ratings *engine.Ratings) *RatingsHandler {
	return &RatingsHandler{ratings: ratings}
}

func (h *RatingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in engine.SubmitRatingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	rt, err := h.ratings.SubmitRating(r.Context(), p.AccountID, in)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, rt, http.StatusCreated)
}

func (h *RatingsHandler) ListBySubject(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("subject_id")
	subjectID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || subjectID <= 0 {
		http.Error(w, "subject_id is required", http.StatusBadRequest)
		return
	}

	limit, offset := pagination(r)
	items, err := h.ratings.ListBySubject(r.Context(), subjectID, limit, offset)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]any{"items": items, "limit": limit, "offset": offset}, http.StatusOK)
}
