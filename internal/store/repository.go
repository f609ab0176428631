/**
 * @description
 * This file defines the interfaces for the data access layer (repositories).
 * Defining interfaces allows for dependency injection and easy mocking in tests,
 * promoting a loosely coupled architecture.
 *
 * @notes
 * - Any component that needs to interact with the database should depend on
 *   these interfaces, not on the concrete PostgreSQL implementation.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/domain"
)

// BankLinkRepository defines the contract for database operations on bank links.
type BankLinkRepository interface {
	Insert(ctx context.Context, link *domain.BankLink) (*domain.BankLink, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.BankLink, error)
	FindByBusinessKey(ctx context.Context, customerID uuid.UUID, provider, providerAccountID string) (*domain.BankLink, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.BankLink, error)
	PersistTransition(ctx context.Context, link *domain.BankLink, from domain.BankLinkStatus) (*domain.BankLink, error)
	MakePrimary(ctx context.Context, customerID, bankLinkID uuid.UUID) error
}

// PayoutRepository defines the contract for database operations on merchant payouts.
type PayoutRepository interface {
	Insert(ctx context.Context, payout *domain.MerchantPayout) (*domain.MerchantPayout, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.MerchantPayout, error)
	FindByMerchantAndCapture(ctx context.Context, merchantID uuid.UUID, captureID string) (*domain.MerchantPayout, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.MerchantPayout, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutStatus, expectedVersion int64) (*domain.MerchantPayout, error)
}

// CustomerRepository defines the contract for database operations on customer profiles.
type CustomerRepository interface {
	Insert(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, updatedAt time.Time) (*domain.Customer, error)
}

// DisbursementRepository defines the contract for database operations on
// customer disbursement records.
type DisbursementRepository interface {
	Insert(ctx context.Context, d *domain.Disbursement) (*domain.Disbursement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Disbursement, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Disbursement, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Disbursement, error)
}
