package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Customer represents a platform customer profile. Email is unique and
// normalized to lower case before it reaches the store.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomer validates and constructs a customer profile.
func NewCustomer(email, fullName string) (*Customer, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrInvalidArgument)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is malformed", ErrInvalidArgument)
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: fullName required", ErrInvalidArgument)
	}
	return &Customer{
		ID:       uuid.New(),
		FullName: fullName,
		Email:    email,
	}, nil
}

// NormalizeEmail lowercases and trims an email address so lookups and the
// unique constraint agree on a canonical form.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
