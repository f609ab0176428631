/**
 * @description
 * This file contains the core business logic for merchant payouts. The
 * `PayoutService` struct orchestrates idempotent creation keyed on
 * (merchant, capture) and the guarded status transitions protected by
 * optimistic-concurrency versioning.
 *
 * Key features:
 * - Creation looks up the business key first and inserts only when absent;
 *   the unique constraint is the authoritative guard, and a concurrent
 *   duplicate insert is resolved by re-reading the winner's row.
 * - Every status write re-checks the version the caller read; a stale write
 *   surfaces a concurrent-modification error for the caller to retry. The
 *   service never auto-retries.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/shopspring/decimal: Exact decimal amounts.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing lifecycle events.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
	"github.com/finflow/payments-service/pkg/rabbitmq"
)

// PayoutService provides the core business logic for merchant payouts.
type PayoutService struct {
	repo          store.PayoutRepository
	eventProducer rabbitmq.Publisher
}

// NewPayoutService creates a new payout service instance.
func NewPayoutService(repo store.PayoutRepository, producer rabbitmq.Publisher) *PayoutService {
	return &PayoutService{repo: repo, eventProducer: producer}
}

// CreateOrGet creates a payout for a merchant capture, or returns the existing
// one when a payout for (merchantId, captureId) already exists. The returned
// bool reports whether a new row was created. Validation runs before any store
// access; amounts with more than 2 fractional digits are rejected, never
// rounded.
func (s *PayoutService) CreateOrGet(ctx context.Context, merchantID, settlementAccountID uuid.UUID, captureID string, amount decimal.Decimal, currency string) (*domain.MerchantPayout, bool, error) {
	payout, err := domain.NewMerchantPayout(merchantID, settlementAccountID, captureID, amount, currency)
	if err != nil {
		return nil, false, err
	}

	// Pessimistic lookup first: the common retry case resolves without an
	// insert attempt.
	existing, err := s.repo.FindByMerchantAndCapture(ctx, merchantID, payout.CaptureID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrPayoutNotFound) {
		return nil, false, fmt.Errorf("failed to look up payout by capture: %w", err)
	}

	inserted, err := s.repo.Insert(ctx, payout)
	if err == nil {
		s.publishStatusEvent(ctx, "payout.created", inserted)
		return inserted, true, nil
	}
	if !errors.Is(err, store.ErrDuplicatePayout) {
		return nil, false, fmt.Errorf("failed to create payout: %w", err)
	}

	// The lookup-then-insert is not atomic; a concurrent creator won the
	// race. The unique constraint caught it, so resolve to the winner's row.
	winner, findErr := s.repo.FindByMerchantAndCapture(ctx, merchantID, payout.CaptureID)
	if findErr != nil {
		return nil, false, fmt.Errorf("failed to load existing payout after duplicate insert: %w", findErr)
	}
	return winner, false, nil
}

// MarkProcessing moves a payout PENDING -> PROCESSING.
func (s *PayoutService) MarkProcessing(ctx context.Context, payoutID uuid.UUID) (*domain.MerchantPayout, error) {
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if err := payout.MarkProcessing(); err != nil {
		return nil, err
	}
	return s.persistStatus(ctx, payout, "payout.status.processing")
}

// MarkSettled moves a payout PROCESSING -> SETTLED.
func (s *PayoutService) MarkSettled(ctx context.Context, payoutID uuid.UUID) (*domain.MerchantPayout, error) {
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if err := payout.MarkSettled(); err != nil {
		return nil, err
	}
	return s.persistStatus(ctx, payout, "payout.status.settled")
}

// MarkFailed moves a payout from PENDING or PROCESSING to FAILED. Failing a
// payout that already reached SETTLED or FAILED is a no-op: the record is
// returned unchanged.
func (s *PayoutService) MarkFailed(ctx context.Context, payoutID uuid.UUID) (*domain.MerchantPayout, error) {
	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	changed, err := payout.MarkFailed()
	if err != nil {
		return nil, err
	}
	if !changed {
		return payout, nil
	}
	return s.persistStatus(ctx, payout, "payout.status.failed")
}

// persistStatus writes the payout's new status under its optimistic version
// check. A stale version surfaces store.ErrConcurrentModification; the caller
// must re-read and retry.
func (s *PayoutService) persistStatus(ctx context.Context, payout *domain.MerchantPayout, routingKey string) (*domain.MerchantPayout, error) {
	updated, err := s.repo.UpdateStatus(ctx, payout.ID, payout.Status, payout.Version)
	if err != nil {
		return nil, err
	}
	s.publishStatusEvent(ctx, routingKey, updated)
	return updated, nil
}

// GetPayout retrieves a payout by id.
func (s *PayoutService) GetPayout(ctx context.Context, payoutID uuid.UUID) (*domain.MerchantPayout, error) {
	return s.repo.FindByID(ctx, payoutID)
}

// ListForMerchant retrieves all payouts for a merchant, newest first.
func (s *PayoutService) ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.MerchantPayout, error) {
	return s.repo.ListByMerchant(ctx, merchantID)
}

func (s *PayoutService) publishStatusEvent(ctx context.Context, routingKey string, payout *domain.MerchantPayout) {
	if s.eventProducer == nil {
		return
	}
	event := domain.PayoutStatusEvent{
		PayoutID:   payout.ID,
		MerchantID: payout.MerchantID,
		CaptureID:  payout.CaptureID,
		Status:     payout.Status,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, EventExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=payout_service msg=\"status event publish failed\" payout_id=%s routing_key=%s err=%v", payout.ID, routingKey, err)
	}
}
