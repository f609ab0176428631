/**
 * @description
 * This file defines the BankLink domain model: a customer's external bank
 * account connected as a funding/payout method. The struct maps directly to
 * the `bank_links` table, and all status changes go through the guarded
 * transition methods below.
 *
 * @notes
 * - The (customer_id, provider, provider_account_id) triple is unique: a
 *   customer cannot link the same external account twice.
 * - At most one link per customer carries is_primary = true, and only while
 *   ACTIVE. The partial unique index created in internal/store/schema.go is
 *   the authoritative enforcement point; it is invisible to this struct.
 */

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BankLinkStatus enumerates the bank link lifecycle states.
type BankLinkStatus string

const (
	BankLinkPending BankLinkStatus = "PENDING"
	BankLinkActive  BankLinkStatus = "ACTIVE"
	BankLinkRevoked BankLinkStatus = "REVOKED"
	BankLinkFailed  BankLinkStatus = "FAILED"
)

// BankLink represents one linked external bank account.
type BankLink struct {
	ID                uuid.UUID      `json:"id"`
	CustomerID        uuid.UUID      `json:"customer_id"`
	Provider          string         `json:"provider"` // e.g. 'plaid', 'teller'
	ProviderAccountID string         `json:"provider_account_id"`
	InstitutionName   *string        `json:"institution_name,omitempty"`
	Last4             *string        `json:"last4,omitempty"`
	Status            BankLinkStatus `json:"status"`
	Primary           bool           `json:"primary"`
	ConsentAt         *time.Time     `json:"consent_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	ActivatedAt       *time.Time     `json:"activated_at,omitempty"`
	RevokedAt         *time.Time     `json:"revoked_at,omitempty"`
}

// NewBankLink constructs a link in PENDING with primary cleared. It validates
// the business key fields and fails before any store access on bad input.
func NewBankLink(customerID uuid.UUID, provider, providerAccountID string, institutionName, last4 *string) (*BankLink, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customerId required", ErrInvalidArgument)
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, fmt.Errorf("%w: provider required", ErrInvalidArgument)
	}
	providerAccountID = strings.TrimSpace(providerAccountID)
	if providerAccountID == "" {
		return nil, fmt.Errorf("%w: providerAccountId required", ErrInvalidArgument)
	}
	if last4 != nil && len(*last4) != 4 {
		return nil, fmt.Errorf("%w: last4 must be exactly 4 characters", ErrInvalidArgument)
	}

	return &BankLink{
		ID:                uuid.New(),
		CustomerID:        customerID,
		Provider:          provider,
		ProviderAccountID: providerAccountID,
		InstitutionName:   institutionName,
		Last4:             last4,
		Status:            BankLinkPending,
		Primary:           false,
	}, nil
}

// Activate moves the link PENDING -> ACTIVE, recording the consent timestamp
// supplied by the caller (or `now` when absent) and the activation time.
func (bl *BankLink) Activate(consentAt *time.Time, now time.Time) error {
	if bl.Status != BankLinkPending {
		return fmt.Errorf("%w: cannot activate a %s link", ErrIllegalTransition, bl.Status)
	}
	consent := now
	if consentAt != nil {
		consent = *consentAt
	}
	bl.Status = BankLinkActive
	bl.ConsentAt = &consent
	bl.ActivatedAt = &now
	return nil
}

// Revoke moves the link to REVOKED and clears the primary flag. It reports
// whether anything changed: revoking an already-revoked link is a no-op.
func (bl *BankLink) Revoke(now time.Time) bool {
	if bl.Status == BankLinkRevoked {
		return false
	}
	bl.Status = BankLinkRevoked
	bl.RevokedAt = &now
	bl.Primary = false
	return true
}

// Fail moves the link to FAILED and clears the primary flag. Revocation
// outranks failure: failing a REVOKED link is a no-op.
func (bl *BankLink) Fail() bool {
	if bl.Status == BankLinkRevoked {
		return false
	}
	bl.Status = BankLinkFailed
	bl.Primary = false
	return true
}

// MakePrimary flags this link as the customer's primary funding method.
// Only ACTIVE links may be primary.
func (bl *BankLink) MakePrimary() error {
	if bl.Status != BankLinkActive {
		return fmt.Errorf("%w: only ACTIVE links can be primary, link is %s", ErrIllegalTransition, bl.Status)
	}
	bl.Primary = true
	return nil
}

// ClearPrimary removes the primary designation.
func (bl *BankLink) ClearPrimary() {
	bl.Primary = false
}
