package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewBankLink_ValidatesInput(t *testing.T) {
	customerID := uuid.New()

	if _, err := NewBankLink(uuid.Nil, "plaid", "acct_1", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for nil customer, got %v", err)
	}
	if _, err := NewBankLink(customerID, "   ", "acct_1", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank provider, got %v", err)
	}
	if _, err := NewBankLink(customerID, "plaid", "", nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank provider account, got %v", err)
	}
	bad := "123"
	if _, err := NewBankLink(customerID, "plaid", "acct_1", nil, &bad); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for 3-char last4, got %v", err)
	}

	link, err := NewBankLink(customerID, "  plaid ", " acct_1 ", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Provider != "plaid" || link.ProviderAccountID != "acct_1" {
		t.Fatalf("expected trimmed business key, got %q / %q", link.Provider, link.ProviderAccountID)
	}
	if link.Status != BankLinkPending {
		t.Fatalf("expected new link to be PENDING, got %s", link.Status)
	}
	if link.Primary {
		t.Fatal("expected new link to not be primary")
	}
}

func TestActivate_OnlyFromPending(t *testing.T) {
	now := time.Now().UTC()
	link, _ := NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)

	if err := link.Activate(nil, now); err != nil {
		t.Fatalf("unexpected error activating PENDING link: %v", err)
	}
	if link.Status != BankLinkActive {
		t.Fatalf("expected ACTIVE, got %s", link.Status)
	}
	if link.ConsentAt == nil || !link.ConsentAt.Equal(now) {
		t.Fatalf("expected consent to default to activation time, got %v", link.ConsentAt)
	}
	if link.ActivatedAt == nil {
		t.Fatal("expected ActivatedAt to be set")
	}

	// Re-activating an ACTIVE link is illegal, not idempotent.
	if err := link.Activate(nil, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for second activate, got %v", err)
	}

	revoked, _ := NewBankLink(uuid.New(), "plaid", "acct_2", nil, nil)
	revoked.Revoke(now)
	if err := revoked.Activate(nil, now); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition activating REVOKED link, got %v", err)
	}
}

func TestActivate_RecordsSuppliedConsent(t *testing.T) {
	link, _ := NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	consent := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := consent.Add(5 * time.Minute)

	if err := link.Activate(&consent, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.ConsentAt == nil || !link.ConsentAt.Equal(consent) {
		t.Fatalf("expected supplied consent timestamp, got %v", link.ConsentAt)
	}
	if link.ActivatedAt == nil || !link.ActivatedAt.Equal(now) {
		t.Fatalf("expected activation time %v, got %v", now, link.ActivatedAt)
	}
}

func TestRevoke_IdempotentAndClearsPrimary(t *testing.T) {
	now := time.Now().UTC()
	link, _ := NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	link.Activate(nil, now)
	if err := link.MakePrimary(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !link.Revoke(now) {
		t.Fatal("expected first revoke to report a change")
	}
	if link.Status != BankLinkRevoked {
		t.Fatalf("expected REVOKED, got %s", link.Status)
	}
	if link.Primary {
		t.Fatal("expected revoke to clear the primary flag")
	}
	if link.RevokedAt == nil {
		t.Fatal("expected RevokedAt to be set")
	}

	if link.Revoke(now.Add(time.Minute)) {
		t.Fatal("expected second revoke to be a no-op")
	}
}

func TestFail_RevocationOutranksFailure(t *testing.T) {
	now := time.Now().UTC()

	link, _ := NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)
	if !link.Fail() {
		t.Fatal("expected failing a PENDING link to report a change")
	}
	if link.Status != BankLinkFailed {
		t.Fatalf("expected FAILED, got %s", link.Status)
	}

	revoked, _ := NewBankLink(uuid.New(), "plaid", "acct_2", nil, nil)
	revoked.Revoke(now)
	if revoked.Fail() {
		t.Fatal("expected failing a REVOKED link to be a no-op")
	}
	if revoked.Status != BankLinkRevoked {
		t.Fatalf("expected link to stay REVOKED, got %s", revoked.Status)
	}
}

func TestMakePrimary_RequiresActive(t *testing.T) {
	link, _ := NewBankLink(uuid.New(), "plaid", "acct_1", nil, nil)

	if err := link.MakePrimary(); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for PENDING link, got %v", err)
	}

	link.Activate(nil, time.Now().UTC())
	if err := link.MakePrimary(); err != nil {
		t.Fatalf("unexpected error for ACTIVE link: %v", err)
	}
	if !link.Primary {
		t.Fatal("expected primary flag to be set")
	}
}
