/**
 * @description
 * This file sets up the HTTP router for the payments-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles the per-resource handler sets the router wires up.
type Handlers struct {
	Customers     *CustomerHandler
	BankLinks     *BankLinkHandler
	Payouts       *PayoutHandler
	Disbursements *DisbursementHandler
}

// NewRouter creates and returns the service's router. When jwksURL is empty
// the authenticated group runs without token validation, which is how local
// development environments are expected to run.
func NewRouter(h Handlers, jwksURL string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		if jwksURL != "" {
			r.Use(AuthMiddleware(jwksURL))
		}

		// Customer profiles
		r.Post("/customers", h.Customers.Create)
		r.Get("/customers/{customerID}", h.Customers.Get)
		r.Patch("/customers/{customerID}", h.Customers.Update)

		// Bank link lifecycle
		r.Post("/bank-links", h.BankLinks.Create)
		r.Get("/customers/{customerID}/bank-links", h.BankLinks.ListByCustomer)
		r.Patch("/bank-links/{bankLinkID}/activate", h.BankLinks.Activate)
		r.Patch("/bank-links/{bankLinkID}/revoke", h.BankLinks.Revoke)
		r.Patch("/bank-links/{bankLinkID}/fail", h.BankLinks.Fail)
		r.Patch("/bank-links/{bankLinkID}/primary", h.BankLinks.MakePrimary)

		// Merchant payout lifecycle
		r.Post("/merchant-payouts", h.Payouts.Create)
		r.Get("/merchant-payouts/{payoutID}", h.Payouts.Get)
		r.Get("/merchant-payouts/merchant/{merchantID}", h.Payouts.ListForMerchant)
		r.Patch("/merchant-payouts/{payoutID}/processing", h.Payouts.MarkProcessing)
		r.Patch("/merchant-payouts/{payoutID}/settled", h.Payouts.MarkSettled)
		r.Patch("/merchant-payouts/{payoutID}/failed", h.Payouts.MarkFailed)

		// Disbursements
		r.Post("/disbursements", h.Disbursements.Create)
		r.Get("/disbursements/{disbursementID}", h.Disbursements.Get)
		r.Get("/customers/{customerID}/disbursements", h.Disbursements.ListByCustomer)
	})

	return r
}
