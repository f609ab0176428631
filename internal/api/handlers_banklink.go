/**
 * @description
 * This file defines the HTTP handlers for bank link endpoints. Handlers are
 * responsible for parsing requests, calling the appropriate service method,
 * and writing the response; all validation beyond basic shape checks lives in
 * the service and domain layers.
 *
 * @dependencies
 * - Standard Go libraries for HTTP, JSON, etc.
 * - Chi router for URL parameter handling.
 * - The service's internal app package for business logic.
 */
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/app"
)

// BankLinkHandler holds the dependencies for bank link handlers.
type BankLinkHandler struct {
	service *app.BankLinkService
}

// NewBankLinkHandler creates a new BankLinkHandler.
func NewBankLinkHandler(service *app.BankLinkService) *BankLinkHandler {
	return &BankLinkHandler{service: service}
}

// CreateBankLinkRequest defines the expected JSON body for linking an account.
type CreateBankLinkRequest struct {
	CustomerID        uuid.UUID `json:"customer_id"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"provider_account_id"`
	InstitutionName   *string   `json:"institution_name,omitempty"`
	Last4             *string   `json:"last4,omitempty"`
}

// Create handles POST /bank-links. It answers 201 when a new link was created
// and 200 when the request resolved to an existing link.
func (h *BankLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBankLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, created, err := h.service.CreateOrGet(r.Context(), req.CustomerID, req.Provider, req.ProviderAccountID, req.InstitutionName, req.Last4)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/bank-links/"+link.ID.String())
	}
	writeJSON(w, status, link)
}

// ListByCustomer handles GET /customers/{customerID}/bank-links.
func (h *BankLinkHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	links, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// Activate handles PATCH /bank-links/{bankLinkID}/activate. An optional
// consentAt query parameter (RFC 3339) records when the customer consented;
// it defaults to the activation time.
func (h *BankLinkHandler) Activate(w http.ResponseWriter, r *http.Request) {
	bankLinkID, err := uuid.Parse(chi.URLParam(r, "bankLinkID"))
	if err != nil {
		http.Error(w, "Invalid bank link id", http.StatusBadRequest)
		return
	}

	var consentAt *time.Time
	if raw := r.URL.Query().Get("consentAt"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "Invalid consentAt timestamp", http.StatusBadRequest)
			return
		}
		consentAt = &parsed
	}

	link, err := h.service.Activate(r.Context(), bankLinkID, consentAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Revoke handles PATCH /bank-links/{bankLinkID}/revoke.
func (h *BankLinkHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	bankLinkID, err := uuid.Parse(chi.URLParam(r, "bankLinkID"))
	if err != nil {
		http.Error(w, "Invalid bank link id", http.StatusBadRequest)
		return
	}

	link, err := h.service.Revoke(r.Context(), bankLinkID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Fail handles PATCH /bank-links/{bankLinkID}/fail.
func (h *BankLinkHandler) Fail(w http.ResponseWriter, r *http.Request) {
	bankLinkID, err := uuid.Parse(chi.URLParam(r, "bankLinkID"))
	if err != nil {
		http.Error(w, "Invalid bank link id", http.StatusBadRequest)
		return
	}

	link, err := h.service.Fail(r.Context(), bankLinkID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// MakePrimary handles PATCH /bank-links/{bankLinkID}/primary?customerId=...
// and responds with the customer's full link list so clients can re-render
// the new primary designation in one round trip.
func (h *BankLinkHandler) MakePrimary(w http.ResponseWriter, r *http.Request) {
	bankLinkID, err := uuid.Parse(chi.URLParam(r, "bankLinkID"))
	if err != nil {
		http.Error(w, "Invalid bank link id", http.StatusBadRequest)
		return
	}
	customerID, err := uuid.Parse(r.URL.Query().Get("customerId"))
	if err != nil {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	if err := h.service.MakePrimary(r.Context(), customerID, bankLinkID); err != nil {
		writeError(w, err)
		return
	}
	if subject, ok := GetAuthSubject(r.Context()); ok {
		log.Printf("level=info component=banklink_handler msg=\"primary switched\" customer_id=%s bank_link_id=%s subject=%s", customerID, bankLinkID, subject)
	}

	links, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}
