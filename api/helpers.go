package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/openfield/crewmarket/internal/engine"
	"github.com/openfield/crewmarket/pkg/repository"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeEngineError maps the engine's error taxonomy onto HTTP statuses. The
// lost-race outcomes surface as 409 so the UI can say "this was just taken"
// instead of a generic failure.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, errorResponse{Error: verr.Error(), Code: "validation"}, http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "not_found"}, http.StatusNotFound)
	case errors.Is(err, repository.ErrForbidden):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "forbidden"}, http.StatusForbidden)
	case errors.Is(err, repository.ErrAlreadyAssigned):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "already_assigned"}, http.StatusConflict)
	case errors.Is(err, repository.ErrAlreadyResolved):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "already_resolved"}, http.StatusConflict)
	case errors.Is(err, repository.ErrDuplicateSubmission):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "duplicate_submission"}, http.StatusConflict)
	case errors.Is(err, repository.ErrInvalidStateTransition):
		writeJSON(w, errorResponse{Error: err.Error(), Code: "invalid_state_transition"}, http.StatusUnprocessableEntity)
	default:
		logger.Error("internal error", slog.Any("err", err))
		writeJSON(w, errorResponse{Error: "internal error", Code: "internal"}, http.StatusInternalServerError)
	}
}
