package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

// DisbursementService provides customer disbursement management. Disbursements
// follow the payout pattern: idempotent creation on a caller-supplied key,
// with the unique constraint resolving concurrent duplicates.
type DisbursementService struct {
	repo      store.DisbursementRepository
	bankLinks store.BankLinkRepository
}

// NewDisbursementService creates a new disbursement service instance.
func NewDisbursementService(repo store.DisbursementRepository, bankLinks store.BankLinkRepository) *DisbursementService {
	return &DisbursementService{repo: repo, bankLinks: bankLinks}
}

// CreateOrGet records a disbursement to one of the customer's bank links, or
// returns the existing record when the idempotency key was seen before. The
// destination link must exist, belong to the customer, and be ACTIVE.
func (s *DisbursementService) CreateOrGet(ctx context.Context, customerID, bankLinkID uuid.UUID, amount decimal.Decimal, currency, idempotencyKey string) (*domain.Disbursement, bool, error) {
	d, err := domain.NewDisbursement(customerID, bankLinkID, amount, currency, idempotencyKey)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByIdempotencyKey(ctx, d.IdempotencyKey)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrDisbursementNotFound) {
		return nil, false, fmt.Errorf("failed to look up disbursement by idempotency key: %w", err)
	}

	if err := s.checkDestination(ctx, customerID, bankLinkID); err != nil {
		return nil, false, err
	}

	inserted, err := s.repo.Insert(ctx, d)
	if err == nil {
		return inserted, true, nil
	}
	if errors.Is(err, store.ErrDisbursementLinkInactive) {
		// The link changed between our check and the guarded write;
		// re-derive the precise error from its current state.
		if checkErr := s.checkDestination(ctx, customerID, bankLinkID); checkErr != nil {
			return nil, false, checkErr
		}
		return nil, false, fmt.Errorf("%w: bank link changed during disbursement creation", domain.ErrIllegalTransition)
	}
	if !errors.Is(err, store.ErrDuplicateIdempotencyKey) {
		return nil, false, fmt.Errorf("failed to create disbursement: %w", err)
	}

	winner, findErr := s.repo.FindByIdempotencyKey(ctx, d.IdempotencyKey)
	if findErr != nil {
		return nil, false, fmt.Errorf("failed to load existing disbursement after duplicate insert: %w", findErr)
	}
	return winner, false, nil
}

// checkDestination verifies the destination link exists, belongs to the
// customer, and is ACTIVE. The guarded insert re-checks the same conditions
// at write time; this lookup exists to give callers a precise error.
func (s *DisbursementService) checkDestination(ctx context.Context, customerID, bankLinkID uuid.UUID) error {
	link, err := s.bankLinks.FindByID(ctx, bankLinkID)
	if err != nil {
		return err
	}
	if link.CustomerID != customerID {
		return fmt.Errorf("%w: bank link %s belongs to another customer", domain.ErrNotOwner, bankLinkID)
	}
	if link.Status != domain.BankLinkActive {
		return fmt.Errorf("%w: disbursements require an ACTIVE bank link, link is %s", domain.ErrIllegalTransition, link.Status)
	}
	return nil
}

// GetDisbursement retrieves a disbursement by id.
func (s *DisbursementService) GetDisbursement(ctx context.Context, id uuid.UUID) (*domain.Disbursement, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByCustomer retrieves all disbursements for a customer, newest first.
func (s *DisbursementService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Disbursement, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}
