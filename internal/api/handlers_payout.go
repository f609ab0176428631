/**
 * @description
 * This file defines the HTTP handlers for merchant payout endpoints. Payout
 * creation is idempotent on the (merchant, capture) pair, so retried requests
 * return the existing record with a 200 instead of a duplicate.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - shopspring/decimal for exact monetary amounts on the wire.
 * - The service's internal app package for business logic.
 */
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/payments-service/internal/app"
	"github.com/finflow/payments-service/internal/domain"
)

// PayoutHandler holds the dependencies for merchant payout handlers.
type PayoutHandler struct {
	service *app.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(service *app.PayoutService) *PayoutHandler {
	return &PayoutHandler{service: service}
}

// CreatePayoutRequest defines the expected JSON body for requesting a payout.
type CreatePayoutRequest struct {
	MerchantID          uuid.UUID       `json:"merchant_id"`
	SettlementAccountID uuid.UUID       `json:"settlement_account_id"`
	CaptureID           string          `json:"capture_id"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
}

// Create handles POST /merchant-payouts. It answers 201 when a new payout was
// created and 200 when the capture already had one.
func (h *PayoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payout, created, err := h.service.CreateOrGet(r.Context(), req.MerchantID, req.SettlementAccountID, req.CaptureID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/merchant-payouts/"+payout.ID.String())
	}
	writeJSON(w, status, payout)
}

// Get handles GET /merchant-payouts/{payoutID}.
func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "payoutID"))
	if err != nil {
		http.Error(w, "Invalid payout id", http.StatusBadRequest)
		return
	}

	payout, err := h.service.GetPayout(r.Context(), payoutID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}

// ListForMerchant handles GET /merchant-payouts/merchant/{merchantID}.
func (h *PayoutHandler) ListForMerchant(w http.ResponseWriter, r *http.Request) {
	merchantID, err := uuid.Parse(chi.URLParam(r, "merchantID"))
	if err != nil {
		http.Error(w, "Invalid merchant id", http.StatusBadRequest)
		return
	}

	payouts, err := h.service.ListForMerchant(r.Context(), merchantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payouts)
}

// MarkProcessing handles PATCH /merchant-payouts/{payoutID}/processing.
func (h *PayoutHandler) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkProcessing)
}

// MarkSettled handles PATCH /merchant-payouts/{payoutID}/settled.
func (h *PayoutHandler) MarkSettled(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkSettled)
}

// MarkFailed handles PATCH /merchant-payouts/{payoutID}/failed.
func (h *PayoutHandler) MarkFailed(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkFailed)
}

func (h *PayoutHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, uuid.UUID) (*domain.MerchantPayout, error)) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "payoutID"))
	if err != nil {
		http.Error(w, "Invalid payout id", http.StatusBadRequest)
		return
	}

	payout, err := apply(r.Context(), payoutID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payout)
}
