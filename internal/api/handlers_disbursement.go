/**
 * @description
 * This file defines the HTTP handlers for disbursement endpoints. Creation is
 * idempotent on the client-supplied idempotency key.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - shopspring/decimal for exact monetary amounts on the wire.
 * - The service's internal app package for business logic.
 */
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/payments-service/internal/app"
)

// DisbursementHandler holds the dependencies for disbursement handlers.
type DisbursementHandler struct {
	service *app.DisbursementService
}

// NewDisbursementHandler creates a new DisbursementHandler.
func NewDisbursementHandler(service *app.DisbursementService) *DisbursementHandler {
	return &DisbursementHandler{service: service}
}

// CreateDisbursementRequest defines the expected JSON body for requesting a
// disbursement to a linked bank account.
type CreateDisbursementRequest struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	BankLinkID     uuid.UUID       `json:"bank_link_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// Create handles POST /disbursements. It answers 201 when a new disbursement
// was created and 200 when the idempotency key already had one.
func (h *DisbursementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDisbursementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	disbursement, created, err := h.service.CreateOrGet(r.Context(), req.CustomerID, req.BankLinkID, req.Amount, req.Currency, req.IdempotencyKey)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/disbursements/"+disbursement.ID.String())
	}
	writeJSON(w, status, disbursement)
}

// Get handles GET /disbursements/{disbursementID}.
func (h *DisbursementHandler) Get(w http.ResponseWriter, r *http.Request) {
	disbursementID, err := uuid.Parse(chi.URLParam(r, "disbursementID"))
	if err != nil {
		http.Error(w, "Invalid disbursement id", http.StatusBadRequest)
		return
	}

	disbursement, err := h.service.GetDisbursement(r.Context(), disbursementID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, disbursement)
}

// ListByCustomer handles GET /customers/{customerID}/disbursements.
func (h *DisbursementHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	disbursements, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, disbursements)
}
