/**
 * @description
 * This file contains the core business logic for bank link management. The
 * `BankLinkService` struct orchestrates idempotent creation, the guarded
 * lifecycle transitions, and the single-primary switch, coordinating between
 * the database repository and the message broker.
 *
 * Key features:
 * - Creation is keyed on (customer, provider, provider account): the insert is
 *   attempted first and a uniqueness violation falls back to reading the
 *   existing row, so retrying clients and racing first-time creators always
 *   converge on one record.
 * - Transitions are guarded twice: in the domain model against the status the
 *   caller read, and at the store against the status actually in the row.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
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

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
	"github.com/finflow/payments-service/pkg/rabbitmq"
)

// EventExchange is the topic exchange lifecycle events are published to.
const EventExchange = "finflow.events"

// BankLinkService provides the core business logic for bank links.
type BankLinkService struct {
	repo          store.BankLinkRepository
	eventProducer rabbitmq.Publisher
}

// NewBankLinkService creates a new bank link service instance.
func NewBankLinkService(repo store.BankLinkRepository, producer rabbitmq.Publisher) *BankLinkService {
	return &BankLinkService{repo: repo, eventProducer: producer}
}

// CreateOrGet links an external bank account for a customer, or returns the
// existing link when the same (provider, provider account) was linked before.
// The returned bool reports whether a new row was created. Safe to call
// repeatedly and safe under concurrent first-time creation: two racing inserts
// resolve to the single winning row.
func (s *BankLinkService) CreateOrGet(ctx context.Context, customerID uuid.UUID, provider, providerAccountID string, institutionName, last4 *string) (*domain.BankLink, bool, error) {
	link, err := domain.NewBankLink(customerID, provider, providerAccountID, institutionName, last4)
	if err != nil {
		return nil, false, err
	}

	inserted, err := s.repo.Insert(ctx, link)
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, store.ErrDuplicateBankLink) {
		return nil, false, fmt.Errorf("failed to create bank link: %w", err)
	}

	// Lost the race (or the client retried): resolve to the existing row.
	existing, findErr := s.repo.FindByBusinessKey(ctx, customerID, link.Provider, link.ProviderAccountID)
	if findErr != nil {
		return nil, false, fmt.Errorf("failed to load existing bank link after duplicate insert: %w", findErr)
	}
	return existing, false, nil
}

// Activate moves a PENDING link to ACTIVE, recording the caller-supplied
// consent timestamp (or now when omitted). Any other current status fails
// with an illegal-transition error.
func (s *BankLinkService) Activate(ctx context.Context, bankLinkID uuid.UUID, consentAt *time.Time) (*domain.BankLink, error) {
	link, err := s.repo.FindByID(ctx, bankLinkID)
	if err != nil {
		return nil, err
	}

	from := link.Status
	if err := link.Activate(consentAt, time.Now().UTC()); err != nil {
		return nil, err
	}

	updated, err := s.repo.PersistTransition(ctx, link, from)
	if err != nil {
		if errors.Is(err, store.ErrBankLinkStale) {
			// Someone else moved the link out of PENDING between our read and write.
			return nil, fmt.Errorf("%w: link is no longer PENDING", domain.ErrIllegalTransition)
		}
		return nil, err
	}

	s.publishStatusEvent(ctx, "banklink.activated", updated)
	return updated, nil
}

// Revoke moves a link to REVOKED and clears its primary flag. Idempotent:
// revoking an already-revoked link returns it unchanged.
func (s *BankLinkService) Revoke(ctx context.Context, bankLinkID uuid.UUID) (*domain.BankLink, error) {
	return s.terminate(ctx, bankLinkID, "banklink.revoked", func(link *domain.BankLink, now time.Time) bool {
		return link.Revoke(now)
	})
}

// Fail moves a link to FAILED and clears its primary flag. A REVOKED link is
// left untouched: revocation outranks failure.
func (s *BankLinkService) Fail(ctx context.Context, bankLinkID uuid.UUID) (*domain.BankLink, error) {
	return s.terminate(ctx, bankLinkID, "banklink.failed", func(link *domain.BankLink, _ time.Time) bool {
		return link.Fail()
	})
}

// terminate runs the shared revoke/fail flow: load, apply the idempotent
// domain mutation, persist guarded by the status that was read. A stale write
// (the status moved underneath us) reloads and retries once; a second miss is
// surfaced to the caller for retry.
func (s *BankLinkService) terminate(ctx context.Context, bankLinkID uuid.UUID, routingKey string, mutate func(*domain.BankLink, time.Time) bool) (*domain.BankLink, error) {
	for attempt := 0; attempt < 2; attempt++ {
		link, err := s.repo.FindByID(ctx, bankLinkID)
		if err != nil {
			return nil, err
		}

		from := link.Status
		if !mutate(link, time.Now().UTC()) {
			// Already REVOKED; nothing to persist.
			return link, nil
		}

		updated, err := s.repo.PersistTransition(ctx, link, from)
		if err != nil {
			if errors.Is(err, store.ErrBankLinkStale) {
				continue
			}
			return nil, err
		}

		s.publishStatusEvent(ctx, routingKey, updated)
		return updated, nil
	}
	return nil, store.ErrBankLinkStale
}

// MakePrimary designates a link as the customer's single primary funding
// method. The clear-then-set runs in one store transaction; the partial unique
// index on (customer_id) WHERE is_primary is the final backstop against two
// concurrent switches both landing.
func (s *BankLinkService) MakePrimary(ctx context.Context, customerID, bankLinkID uuid.UUID) error {
	if err := s.repo.MakePrimary(ctx, customerID, bankLinkID); err != nil {
		return err
	}

	if s.eventProducer != nil {
		event := domain.BankLinkStatusEvent{
			BankLinkID: bankLinkID,
			CustomerID: customerID,
			Status:     domain.BankLinkActive,
			Primary:    true,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.eventProducer.Publish(ctx, EventExchange, "banklink.primary.changed", event); err != nil {
			log.Printf("level=warn component=banklink_service msg=\"primary change event publish failed\" bank_link_id=%s err=%v", bankLinkID, err)
		}
	}
	return nil
}

// GetBankLink retrieves a single link by id.
func (s *BankLinkService) GetBankLink(ctx context.Context, bankLinkID uuid.UUID) (*domain.BankLink, error) {
	return s.repo.FindByID(ctx, bankLinkID)
}

// ListByCustomer retrieves all of a customer's links, newest first.
func (s *BankLinkService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.BankLink, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *BankLinkService) publishStatusEvent(ctx context.Context, routingKey string, link *domain.BankLink) {
	if s.eventProducer == nil {
		return
	}
	event := domain.BankLinkStatusEvent{
		BankLinkID: link.ID,
		CustomerID: link.CustomerID,
		Status:     link.Status,
		Primary:    link.Primary,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, EventExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=banklink_service msg=\"status event publish failed\" bank_link_id=%s routing_key=%s err=%v", link.ID, routingKey, err)
	}
}
