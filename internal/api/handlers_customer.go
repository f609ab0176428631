/**
 * @description
 * This file defines the HTTP handlers for customer profile endpoints.
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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/app"
)

// CustomerHandler holds the dependencies for customer handlers.
type CustomerHandler struct {
	service *app.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(service *app.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// CreateCustomerRequest defines the expected JSON body for registering a customer.
type CreateCustomerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// UpdateCustomerRequest defines the expected JSON body for profile updates.
type UpdateCustomerRequest struct {
	FullName string `json:"full_name"`
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), req.Email, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/customers/"+customer.ID.String())
	writeJSON(w, http.StatusCreated, customer)
}

// Get handles GET /customers/{customerID}.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// Update handles PATCH /customers/{customerID}.
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	customer, err := h.service.UpdateCustomerName(r.Context(), customerID, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}
	if subject, ok := GetAuthSubject(r.Context()); ok {
		log.Printf("level=info component=customer_handler msg=\"profile updated\" customer_id=%s subject=%s", customerID, subject)
	}
	writeJSON(w, http.StatusOK, customer)
}
