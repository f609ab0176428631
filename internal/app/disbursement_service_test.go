package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

type disbursementRepoStub struct {
	store.DisbursementRepository

	byKey     *domain.Disbursement
	insertErr error

	insertCalled bool
}

func (s *disbursementRepoStub) Insert(ctx context.Context, d *domain.Disbursement) (*domain.Disbursement, error) {
	s.insertCalled = true
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	copied := *d
	return &copied, nil
}

func (s *disbursementRepoStub) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Disbursement, error) {
	if s.byKey == nil {
		return nil, store.ErrDisbursementNotFound
	}
	return s.byKey, nil
}

func activeLink(customerID uuid.UUID) *domain.BankLink {
	link, _ := domain.NewBankLink(customerID, "plaid", "acct_1", nil, nil)
	link.Activate(nil, time.Now().UTC())
	return link
}

func TestDisbursementCreateOrGet_RequiresActiveOwnedLink(t *testing.T) {
	customerID := uuid.New()
	link := activeLink(customerID)
	links := &bankLinkRepoStub{byID: map[uuid.UUID]*domain.BankLink{link.ID: link}}
	repo := &disbursementRepoStub{}
	service := NewDisbursementService(repo, links)

	d, created, err := service.CreateOrGet(context.Background(), customerID, link.ID, decimal.RequireFromString("40.00"), "USD", "key_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for first disbursement")
	}
	if d.Status != domain.PayoutPending {
		t.Fatalf("expected PENDING, got %s", d.Status)
	}
}

func TestDisbursementCreateOrGet_RejectsForeignLink(t *testing.T) {
	link := activeLink(uuid.New())
	links := &bankLinkRepoStub{byID: map[uuid.UUID]*domain.BankLink{link.ID: link}}
	repo := &disbursementRepoStub{}
	service := NewDisbursementService(repo, links)

	_, _, err := service.CreateOrGet(context.Background(), uuid.New(), link.ID, decimal.NewFromInt(40), "USD", "key_1")
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for another customer's link, got %v", err)
	}
	if repo.insertCalled {
		t.Fatal("expected no insert for a foreign link")
	}
}

func TestDisbursementCreateOrGet_RejectsInactiveLink(t *testing.T) {
	customerID := uuid.New()
	link, _ := domain.NewBankLink(customerID, "plaid", "acct_1", nil, nil)
	links := &bankLinkRepoStub{byID: map[uuid.UUID]*domain.BankLink{link.ID: link}}
	service := NewDisbursementService(&disbursementRepoStub{}, links)

	_, _, err := service.CreateOrGet(context.Background(), customerID, link.ID, decimal.NewFromInt(40), "USD", "key_1")
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for a PENDING link, got %v", err)
	}
}

// flippingLinkRepo serves the link ACTIVE on the first read and REVOKED from
// then on, simulating a revocation landing between the eligibility check and
// the guarded insert.
type flippingLinkRepo struct {
	store.BankLinkRepository

	link  *domain.BankLink
	finds int
}

func (s *flippingLinkRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.BankLink, error) {
	s.finds++
	copied := *s.link
	if s.finds > 1 {
		copied.Status = domain.BankLinkRevoked
	}
	return &copied, nil
}

func TestDisbursementCreateOrGet_LinkRevokedBetweenCheckAndInsert(t *testing.T) {
	customerID := uuid.New()
	link := activeLink(customerID)
	links := &flippingLinkRepo{link: link}
	repo := &disbursementRepoStub{insertErr: store.ErrDisbursementLinkInactive}
	service := NewDisbursementService(repo, links)

	_, _, err := service.CreateOrGet(context.Background(), customerID, link.ID, decimal.NewFromInt(40), "USD", "key_1")
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition when the link was revoked mid-create, got %v", err)
	}
	if !repo.insertCalled {
		t.Fatal("expected the guarded insert to be attempted")
	}
	if links.finds != 2 {
		t.Fatalf("expected a re-read after the guard miss, got %d reads", links.finds)
	}
}

func TestDisbursementCreateOrGet_IdempotencyKeyShortCircuits(t *testing.T) {
	customerID := uuid.New()
	existing := &domain.Disbursement{ID: uuid.New(), CustomerID: customerID, IdempotencyKey: "key_1"}
	repo := &disbursementRepoStub{byKey: existing}
	service := NewDisbursementService(repo, &bankLinkRepoStub{})

	d, created, err := service.CreateOrGet(context.Background(), customerID, uuid.New(), decimal.NewFromInt(40), "USD", "key_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for a seen idempotency key")
	}
	if d.ID != existing.ID {
		t.Fatalf("expected the existing record, got %s", d.ID)
	}
	if repo.insertCalled {
		t.Fatal("expected no insert for a seen idempotency key")
	}
}
