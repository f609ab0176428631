package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finflow/payments-service/internal/domain"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// fakeLinkRow is one bank_links row as the primary-switch statements see it.
type fakeLinkRow struct {
	customerID uuid.UUID
	status     domain.BankLinkStatus
	primary    bool
}

// primaryTxStub interprets the three primary-switch statements against an
// in-memory row set, including the partial unique index's one-primary rule.
type primaryTxStub struct {
	links map[uuid.UUID]*fakeLinkRow

	setErr error
	execs  []string
}

func (s *primaryTxStub) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, sql)
	switch {
	case strings.Contains(sql, "is_primary = FALSE"):
		customerID := arguments[0].(uuid.UUID)
		for _, row := range s.links {
			if row.customerID == customerID {
				row.primary = false
			}
		}
	case strings.Contains(sql, "is_primary = TRUE"):
		if s.setErr != nil {
			return pgconn.CommandTag{}, s.setErr
		}
		target := arguments[0].(uuid.UUID)
		row, ok := s.links[target]
		if !ok {
			return pgconn.CommandTag{}, pgx.ErrNoRows
		}
		for id, other := range s.links {
			if id != target && other.customerID == row.customerID && other.primary {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "23505", ConstraintName: bankLinkPrimaryConstraint}
			}
		}
		row.primary = true
	}
	return pgconn.CommandTag{}, nil
}

func (s *primaryTxStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return rowFunc(func(dest ...any) error {
		row, ok := s.links[args[0].(uuid.UUID)]
		if !ok {
			return pgx.ErrNoRows
		}
		*dest[0].(*uuid.UUID) = row.customerID
		*dest[1].(*domain.BankLinkStatus) = row.status
		return nil
	})
}

func (s *primaryTxStub) primaryCount(customerID uuid.UUID) int {
	count := 0
	for _, row := range s.links {
		if row.customerID == customerID && row.primary {
			count++
		}
	}
	return count
}

func TestSwitchPrimary_MovesDesignationToExactlyOneLink(t *testing.T) {
	customerID := uuid.New()
	linkA := uuid.New()
	linkB := uuid.New()
	tx := &primaryTxStub{links: map[uuid.UUID]*fakeLinkRow{
		linkA: {customerID: customerID, status: domain.BankLinkActive},
		linkB: {customerID: customerID, status: domain.BankLinkActive},
	}}

	if err := switchPrimary(context.Background(), tx, customerID, linkA); err != nil {
		t.Fatalf("unexpected error switching to A: %v", err)
	}
	if !tx.links[linkA].primary {
		t.Fatal("expected link A to be primary after first switch")
	}

	if err := switchPrimary(context.Background(), tx, customerID, linkB); err != nil {
		t.Fatalf("unexpected error switching to B: %v", err)
	}
	if tx.links[linkA].primary {
		t.Fatal("expected link A to lose the primary designation")
	}
	if !tx.links[linkB].primary {
		t.Fatal("expected link B to be primary after second switch")
	}
	if got := tx.primaryCount(customerID); got != 1 {
		t.Fatalf("expected exactly one primary link, got %d", got)
	}
}

func TestSwitchPrimary_ClearsBeforeSetting(t *testing.T) {
	customerID := uuid.New()
	linkID := uuid.New()
	tx := &primaryTxStub{links: map[uuid.UUID]*fakeLinkRow{
		linkID: {customerID: customerID, status: domain.BankLinkActive},
	}}

	if err := switchPrimary(context.Background(), tx, customerID, linkID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tx.execs) != 2 {
		t.Fatalf("expected clear then set, got %d statements", len(tx.execs))
	}
	if !strings.Contains(tx.execs[0], "is_primary = FALSE") {
		t.Fatalf("expected the clear to run first, got %q", tx.execs[0])
	}
	if !strings.Contains(tx.execs[1], "is_primary = TRUE") {
		t.Fatalf("expected the set to run last, got %q", tx.execs[1])
	}
}

func TestSwitchPrimary_RejectsForeignLink(t *testing.T) {
	linkID := uuid.New()
	tx := &primaryTxStub{links: map[uuid.UUID]*fakeLinkRow{
		linkID: {customerID: uuid.New(), status: domain.BankLinkActive},
	}}

	err := switchPrimary(context.Background(), tx, uuid.New(), linkID)
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for another customer's link, got %v", err)
	}
	for _, sql := range tx.execs {
		if strings.Contains(sql, "is_primary = TRUE") {
			t.Fatal("expected no set statement for a foreign link")
		}
	}
}

func TestSwitchPrimary_RejectsNonActiveLink(t *testing.T) {
	customerID := uuid.New()
	for _, status := range []domain.BankLinkStatus{domain.BankLinkPending, domain.BankLinkRevoked, domain.BankLinkFailed} {
		linkID := uuid.New()
		tx := &primaryTxStub{links: map[uuid.UUID]*fakeLinkRow{
			linkID: {customerID: customerID, status: status},
		}}

		err := switchPrimary(context.Background(), tx, customerID, linkID)
		if !errors.Is(err, domain.ErrIllegalTransition) {
			t.Fatalf("status %s: expected ErrIllegalTransition, got %v", status, err)
		}
	}
}

func TestSwitchPrimary_MissingLink(t *testing.T) {
	tx := &primaryTxStub{links: map[uuid.UUID]*fakeLinkRow{}}

	err := switchPrimary(context.Background(), tx, uuid.New(), uuid.New())
	if !errors.Is(err, ErrBankLinkNotFound) {
		t.Fatalf("expected ErrBankLinkNotFound, got %v", err)
	}
}

func TestSwitchPrimary_IndexViolationMapsToConflict(t *testing.T) {
	customerID := uuid.New()
	linkID := uuid.New()
	tx := &primaryTxStub{
		links: map[uuid.UUID]*fakeLinkRow{
			linkID: {customerID: customerID, status: domain.BankLinkActive},
		},
		setErr: &pgconn.PgError{Code: "23505", ConstraintName: bankLinkPrimaryConstraint},
	}

	err := switchPrimary(context.Background(), tx, customerID, linkID)
	if !errors.Is(err, ErrPrimaryConflict) {
		t.Fatalf("expected ErrPrimaryConflict, got %v", err)
	}
}
