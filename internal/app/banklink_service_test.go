package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

type bankLinkRepoStub struct {
	store.BankLinkRepository

	byID map[uuid.UUID]*domain.BankLink

	insertErr     error
	existing      *domain.BankLink
	insertCalled  bool
	persistCalled int

	// persistErrs is consumed one entry per PersistTransition call.
	persistErrs []error
}

func (s *bankLinkRepoStub) Insert(ctx context.Context, link *domain.BankLink) (*domain.BankLink, error) {
	s.insertCalled = true
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	copied := *link
	return &copied, nil
}

func (s *bankLinkRepoStub) FindByID(ctx context.Context, id uuid.UUID) (*domain.BankLink, error) {
	link, ok := s.byID[id]
	if !ok {
		return nil, store.ErrBankLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (s *bankLinkRepoStub) FindByBusinessKey(ctx context.Context, customerID uuid.UUID, provider, providerAccountID string) (*domain.BankLink, error) {
	if s.existing == nil {
		return nil, store.ErrBankLinkNotFound
	}
	return s.existing, nil
}

func (s *bankLinkRepoStub) PersistTransition(ctx context.Context, link *domain.BankLink, from domain.BankLinkStatus) (*domain.BankLink, error) {
	s.persistCalled++
	if len(s.persistErrs) > 0 {
		err := s.persistErrs[0]
		s.persistErrs = s.persistErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if s.byID != nil {
		stored := *link
		s.byID[link.ID] = &stored
	}
	copied := *link
	return &copied, nil
}

func TestCreateOrGet_NewLink(t *testing.T) {
	repo := &bankLinkRepoStub{}
	service := NewBankLinkService(repo, nil)

	link, created, err := service.CreateOrGet(context.Background(), uuid.New(), "plaid", "acct_1", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for first link")
	}
	if link.Status != domain.BankLinkPending {
		t.Fatalf("expected created link to stay PENDING, got %s", link.Status)
	}
}

func TestCreateOrGet_DuplicateResolvesToExisting(t *testing.T) {
	customerID := uuid.New()
	existing := &domain.BankLink{
		ID:         uuid.New(),
		CustomerID: customerID,
		Provider:   "plaid",
		Status:     domain.BankLinkActive,
	}
	repo := &bankLinkRepoStub{
		insertErr: store.ErrDuplicateBankLink,
		existing:  existing,
	}
	service := NewBankLinkService(repo, nil)

	link, created, err := service.CreateOrGet(context.Background(), customerID, "plaid", "acct_1", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false when the business key already exists")
	}
	if link.ID != existing.ID {
		t.Fatalf("expected the existing row, got %s", link.ID)
	}
	if link.Status != domain.BankLinkActive {
		t.Fatalf("expected existing row returned unmodified, got status %s", link.Status)
	}
}

func TestCreateOrGet_RejectsBadInputBeforeStore(t *testing.T) {
	repo := &bankLinkRepoStub{}
	service := NewBankLinkService(repo, nil)

	if _, _, err := service.CreateOrGet(context.Background(), uuid.New(), "", "acct_1", nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if repo.insertCalled {
		t.Fatal("expected no insert attempt on invalid input")
	}
}

func TestActivate_StaleWriteSurfacesIllegalTransition(t *testing.T) {
	link, _ := domain.NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	repo := &bankLinkRepoStub{
		byID:        map[uuid.UUID]*domain.BankLink{link.ID: link},
		persistErrs: []error{store.ErrBankLinkStale},
	}
	service := NewBankLinkService(repo, nil)

	_, err := service.Activate(context.Background(), link.ID, nil)
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition when the row left PENDING underneath us, got %v", err)
	}
}

func TestRevoke_SecondCallIsNoOp(t *testing.T) {
	link, _ := domain.NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	repo := &bankLinkRepoStub{
		byID: map[uuid.UUID]*domain.BankLink{link.ID: link},
	}
	service := NewBankLinkService(repo, nil)

	first, err := service.Revoke(context.Background(), link.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != domain.BankLinkRevoked {
		t.Fatalf("expected REVOKED, got %s", first.Status)
	}
	if repo.persistCalled != 1 {
		t.Fatalf("expected one persisted transition, got %d", repo.persistCalled)
	}

	second, err := service.Revoke(context.Background(), link.ID)
	if err != nil {
		t.Fatalf("unexpected error on repeat revoke: %v", err)
	}
	if second.Status != domain.BankLinkRevoked {
		t.Fatalf("expected REVOKED, got %s", second.Status)
	}
	if repo.persistCalled != 1 {
		t.Fatalf("expected no second write for idempotent revoke, got %d", repo.persistCalled)
	}
}

func TestTerminate_RetriesOnceOnStaleWrite(t *testing.T) {
	link, _ := domain.NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	repo := &bankLinkRepoStub{
		byID:        map[uuid.UUID]*domain.BankLink{link.ID: link},
		persistErrs: []error{store.ErrBankLinkStale, nil},
	}
	service := NewBankLinkService(repo, nil)

	updated, err := service.Fail(context.Background(), link.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.BankLinkFailed {
		t.Fatalf("expected FAILED after retry, got %s", updated.Status)
	}
	if repo.persistCalled != 2 {
		t.Fatalf("expected exactly two persist attempts, got %d", repo.persistCalled)
	}
}
