package api

import (
	"encoding/json"
	"net/http"

	"github.com/openfield/crewmarket/internal/engine"
)

type RequestsHandler struct {
	requests *engine.Requests
}

func NewRequestsHandler(requests *engine.Requests) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

func (h *RequestsHandler) Open(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var in engine.OpenServiceRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	sr, err := h.requests.OpenServiceRequest(r.Context(), p.AccountID, in)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, sr, http.StatusCreated)
}

func (h *RequestsHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, err := h.requests.ListOpen(r.Context(), limit, offset)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]any{"items": items, "limit": limit, "offset": offset}, http.StatusOK)
}

func (h *RequestsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.requests.CancelServiceRequest(r.Context(), id, p.AccountID); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "cancelled"}, http.StatusOK)
}

func (h *RequestsHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in engine.SubmitQuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	q, err := h.requests.SubmitQuote(r.Context(), p.AccountID, id, in)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, q, http.StatusCreated)
}

// ListQuotes is poster-only. Default ordering is submission time ascending;
// ?order=price switches to the price-ascending view.
func (h *RequestsHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	orderByPrice := r.URL.Query().Get("order") == "price"
	items, err := h.requests.ListQuotes(r.Context(), id, p.AccountID, orderByPrice)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}

func (h *RequestsHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sr, err := h.requests.AcceptQuote(r.Context(), id, p.AccountID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, sr, http.StatusOK)
}
