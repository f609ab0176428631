/**
 * @description
 * This file implements the data access layer for bank link operations against
 * PostgreSQL. The `bank_links` table carries two constraints this code leans
 * on: the (customer_id, provider, provider_account_id) unique key that guards
 * idempotent creation, and the partial unique index on (customer_id) WHERE
 * is_primary that guards the single-primary invariant.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - log: For logging database errors.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - The service's internal domain package for the BankLink model.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finflow/payments-service/internal/domain"
)

const (
	bankLinkBusinessKeyConstraint = "uk_cust_provider_account"
	bankLinkPrimaryConstraint     = "uq_bank_links_one_primary"
)

// PostgresBankLinkRepository is the PostgreSQL implementation of the BankLinkRepository.
type PostgresBankLinkRepository struct {
	db *pgxpool.Pool
}

// NewPostgresBankLinkRepository creates a new instance of PostgresBankLinkRepository.
func NewPostgresBankLinkRepository(db *pgxpool.Pool) *PostgresBankLinkRepository {
	return &PostgresBankLinkRepository{db: db}
}

const bankLinkColumns = `
	id, customer_id, provider, provider_account_id, institution_name, last4,
	status, is_primary, consent_at, created_at, activated_at, revoked_at
`

func scanBankLink(row pgx.Row) (*domain.BankLink, error) {
	var link domain.BankLink
	err := row.Scan(
		&link.ID,
		&link.CustomerID,
		&link.Provider,
		&link.ProviderAccountID,
		&link.InstitutionName,
		&link.Last4,
		&link.Status,
		&link.Primary,
		&link.ConsentAt,
		&link.CreatedAt,
		&link.ActivatedAt,
		&link.RevokedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Insert persists a freshly constructed link. A violation of the business-key
// constraint maps to ErrDuplicateBankLink so the caller can fall back to the
// existing row.
func (r *PostgresBankLinkRepository) Insert(ctx context.Context, link *domain.BankLink) (*domain.BankLink, error) {
	query := `
        INSERT INTO bank_links (id, customer_id, provider, provider_account_id, institution_name, last4, status, is_primary)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + bankLinkColumns
	inserted, err := scanBankLink(r.db.QueryRow(ctx, query,
		link.ID,
		link.CustomerID,
		link.Provider,
		link.ProviderAccountID,
		link.InstitutionName,
		link.Last4,
		link.Status,
		link.Primary,
	))
	if err != nil {
		if isUniqueViolation(err, bankLinkBusinessKeyConstraint) {
			return nil, ErrDuplicateBankLink
		}
		log.Printf("level=error component=banklink_repository msg=\"insert failed\" customer_id=%s err=%v", link.CustomerID, err)
		return nil, err
	}
	return inserted, nil
}

// FindByID retrieves a bank link by its generated id.
func (r *PostgresBankLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.BankLink, error) {
	query := `SELECT ` + bankLinkColumns + ` FROM bank_links WHERE id = $1`
	link, err := scanBankLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

// FindByBusinessKey retrieves a bank link by its natural
// (customer, provider, provider account) identity.
func (r *PostgresBankLinkRepository) FindByBusinessKey(ctx context.Context, customerID uuid.UUID, provider, providerAccountID string) (*domain.BankLink, error) {
	query := `
		SELECT ` + bankLinkColumns + `
		FROM bank_links
		WHERE customer_id = $1 AND provider = $2 AND provider_account_id = $3
	`
	link, err := scanBankLink(r.db.QueryRow(ctx, query, customerID, provider, providerAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBankLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

// ListByCustomer retrieves all of a customer's bank links, newest first.
func (r *PostgresBankLinkRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.BankLink, error) {
	query := `
		SELECT ` + bankLinkColumns + `
		FROM bank_links
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.BankLink
	for rows.Next() {
		link, err := scanBankLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *link)
	}
	return links, rows.Err()
}

// PersistTransition writes the link's mutated lifecycle fields, guarded by the
// status the caller read. Zero rows affected means another writer moved the
// link out of `from` first; that surfaces as ErrBankLinkStale (or
// ErrBankLinkNotFound when the row does not exist at all).
func (r *PostgresBankLinkRepository) PersistTransition(ctx context.Context, link *domain.BankLink, from domain.BankLinkStatus) (*domain.BankLink, error) {
	query := `
		UPDATE bank_links
		SET status = $2, is_primary = $3, consent_at = $4, activated_at = $5, revoked_at = $6
		WHERE id = $1 AND status = $7
		RETURNING ` + bankLinkColumns
	updated, err := scanBankLink(r.db.QueryRow(ctx, query,
		link.ID,
		link.Status,
		link.Primary,
		link.ConsentAt,
		link.ActivatedAt,
		link.RevokedAt,
		from,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("level=error component=banklink_repository msg=\"transition write failed\" bank_link_id=%s err=%v", link.ID, err)
		return nil, err
	}

	// Distinguish a vanished row from a concurrent transition.
	if _, findErr := r.FindByID(ctx, link.ID); findErr != nil {
		return nil, findErr
	}
	return nil, ErrBankLinkStale
}

// primaryTx is the slice of pgx.Tx the primary switch needs. Narrowing it to
// two methods lets tests drive switchPrimary without a live database.
type primaryTx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MakePrimary atomically moves the customer's primary designation to the given
// link. The whole clear/check/set sequence runs in one transaction.
func (r *PostgresBankLinkRepository) MakePrimary(ctx context.Context, customerID, bankLinkID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin primary-switch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := switchPrimary(ctx, tx, customerID, bankLinkID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// switchPrimary runs the primary-switch sequence: a bulk clear of the old
// primary, an ownership and status check on the target under a row lock, then
// the set. The bulk clear (rather than a read-modify-write of a fetched
// object) avoids a lost-update race between two concurrent switches; the
// partial unique index is the final backstop, and the sequence is safe at
// read-committed isolation.
func switchPrimary(ctx context.Context, tx primaryTx, customerID, bankLinkID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE bank_links SET is_primary = FALSE WHERE customer_id = $1 AND is_primary`,
		customerID,
	); err != nil {
		return fmt.Errorf("clear current primary: %w", err)
	}

	var ownerID uuid.UUID
	var status domain.BankLinkStatus
	err := tx.QueryRow(ctx,
		`SELECT customer_id, status FROM bank_links WHERE id = $1 FOR UPDATE`,
		bankLinkID,
	).Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBankLinkNotFound
		}
		return err
	}
	if ownerID != customerID {
		return fmt.Errorf("%w: bank link %s belongs to another customer", domain.ErrNotOwner, bankLinkID)
	}
	if status != domain.BankLinkActive {
		return fmt.Errorf("%w: only ACTIVE links can be primary, link is %s", domain.ErrIllegalTransition, status)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bank_links SET is_primary = TRUE WHERE id = $1`,
		bankLinkID,
	); err != nil {
		if isUniqueViolation(err, bankLinkPrimaryConstraint) {
			return ErrPrimaryConflict
		}
		return fmt.Errorf("set new primary: %w", err)
	}

	return nil
}
