package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

// errorResponse is the JSON error envelope returned by all handlers.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON is a helper to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Duplicate
// creation never reaches this path: it is resolved into the idempotent
// "return existing" result before the handler sees an error.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrBankLinkNotFound),
		errors.Is(err, store.ErrPayoutNotFound),
		errors.Is(err, store.ErrCustomerNotFound),
		errors.Is(err, store.ErrDisbursementNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, store.ErrDuplicateCustomerEmail),
		errors.Is(err, store.ErrPrimaryConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrConcurrentModification),
		errors.Is(err, store.ErrBankLinkStale):
		// 409 with a retryable hint: the caller should re-read and retry.
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
