package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

type customerRepoStub struct {
	store.CustomerRepository

	byEmail *domain.Customer

	insertCalled bool
	updatedName  string
}

func (s *customerRepoStub) Insert(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	s.insertCalled = true
	copied := *customer
	return &copied, nil
}

func (s *customerRepoStub) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	if s.byEmail == nil {
		return nil, store.ErrCustomerNotFound
	}
	return s.byEmail, nil
}

func (s *customerRepoStub) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, updatedAt time.Time) (*domain.Customer, error) {
	s.updatedName = fullName
	return &domain.Customer{ID: id, FullName: fullName, UpdatedAt: updatedAt}, nil
}

func TestCreateCustomer_NormalizesEmail(t *testing.T) {
	repo := &customerRepoStub{}
	service := NewCustomerService(repo)

	customer, err := service.CreateCustomer(context.Background(), "  Jane@Example.COM ", "Jane Doe")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %q", customer.Email)
	}
}

func TestCreateCustomer_DuplicateEmailRejected(t *testing.T) {
	repo := &customerRepoStub{byEmail: &domain.Customer{ID: uuid.New(), Email: "jane@example.com"}}
	service := NewCustomerService(repo)

	_, err := service.CreateCustomer(context.Background(), "jane@example.com", "Jane Doe")
	if !errors.Is(err, store.ErrDuplicateCustomerEmail) {
		t.Fatalf("expected ErrDuplicateCustomerEmail, got %v", err)
	}
	if repo.insertCalled {
		t.Fatal("expected no insert for a duplicate email")
	}
}

func TestUpdateCustomerName_TrimsAndValidates(t *testing.T) {
	repo := &customerRepoStub{}
	service := NewCustomerService(repo)

	if _, err := service.UpdateCustomerName(context.Background(), uuid.New(), "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank name, got %v", err)
	}

	updated, err := service.UpdateCustomerName(context.Background(), uuid.New(), "  Jane D. ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.FullName != "Jane D." {
		t.Fatalf("expected trimmed name, got %q", updated.FullName)
	}
	if repo.updatedName != "Jane D." {
		t.Fatalf("expected trimmed name persisted, got %q", repo.updatedName)
	}
}
