package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finflow/payments-service/internal/domain"
	"github.com/finflow/payments-service/internal/store"
)

// CustomerService provides customer profile management.
type CustomerService struct {
	repo store.CustomerRepository
}

// NewCustomerService creates a new customer service instance.
func NewCustomerService(repo store.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// CreateCustomer registers a new customer profile. The email is normalized and
// must be unique; a pre-insert lookup catches the common duplicate case, and
// the unique constraint catches concurrent creates that slip past it.
func (s *CustomerService) CreateCustomer(ctx context.Context, email, fullName string) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(email, fullName)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, customer.Email); err == nil {
		return nil, store.ErrDuplicateCustomerEmail
	} else if !errors.Is(err, store.ErrCustomerNotFound) {
		return nil, fmt.Errorf("failed to check for existing email: %w", err)
	}

	return s.repo.Insert(ctx, customer)
}

// GetCustomer retrieves a customer profile by id.
func (s *CustomerService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Customer, error) {
	return s.repo.FindByID(ctx, customerID)
}

// UpdateCustomerName changes a customer's display name.
func (s *CustomerService) UpdateCustomerName(ctx context.Context, customerID uuid.UUID, fullName string) (*domain.Customer, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: fullName required", domain.ErrInvalidArgument)
	}
	return s.repo.UpdateProfile(ctx, customerID, fullName, time.Now().UTC())
}
