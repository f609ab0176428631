/**
 * @description
 * This file implements the data access layer for merchant payout operations
 * against PostgreSQL. Two mechanisms protect payout consistency: the
 * (merchant_id, capture_id) unique constraint that guards idempotent creation,
 * and the version column used for optimistic-concurrency checks on status
 * writes.
 *
 * @dependencies
 * - context: For managing request-scoped deadlines and cancellations.
 * - log: For logging database errors.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - The service's internal domain package for the MerchantPayout model.
 */
package store

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finflow/payments-service/internal/domain"
)

const payoutCaptureConstraint = "uq_payout_merchant_capture"

// PostgresPayoutRepository is the PostgreSQL implementation of the PayoutRepository.
type PostgresPayoutRepository struct {
	db *pgxpool.Pool
}

// NewPostgresPayoutRepository creates a new instance of PostgresPayoutRepository.
func NewPostgresPayoutRepository(db *pgxpool.Pool) *PostgresPayoutRepository {
	return &PostgresPayoutRepository{db: db}
}

const payoutColumns = `
	id, merchant_id, merchant_settlement_account_id, capture_id, amount,
	currency, status, version, created_at, updated_at
`

func scanPayout(row pgx.Row) (*domain.MerchantPayout, error) {
	var p domain.MerchantPayout
	err := row.Scan(
		&p.ID,
		&p.MerchantID,
		&p.SettlementAccountID,
		&p.CaptureID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert persists a freshly constructed payout. A violation of the
// merchant+capture constraint maps to ErrDuplicatePayout so the caller can
// fall back to the existing row.
func (r *PostgresPayoutRepository) Insert(ctx context.Context, payout *domain.MerchantPayout) (*domain.MerchantPayout, error) {
	query := `
        INSERT INTO merchant_payouts (id, merchant_id, merchant_settlement_account_id, capture_id, amount, currency, status, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + payoutColumns
	inserted, err := scanPayout(r.db.QueryRow(ctx, query,
		payout.ID,
		payout.MerchantID,
		payout.SettlementAccountID,
		payout.CaptureID,
		payout.Amount,
		payout.Currency,
		payout.Status,
		payout.Version,
	))
	if err != nil {
		if isUniqueViolation(err, payoutCaptureConstraint) {
			return nil, ErrDuplicatePayout
		}
		log.Printf("level=error component=payout_repository msg=\"insert failed\" merchant_id=%s capture_id=%s err=%v", payout.MerchantID, payout.CaptureID, err)
		return nil, err
	}
	return inserted, nil
}

// FindByID retrieves a payout by its generated id.
func (r *PostgresPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.MerchantPayout, error) {
	query := `SELECT ` + payoutColumns + ` FROM merchant_payouts WHERE id = $1`
	payout, err := scanPayout(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return payout, nil
}

// FindByMerchantAndCapture retrieves a payout by its natural business key.
func (r *PostgresPayoutRepository) FindByMerchantAndCapture(ctx context.Context, merchantID uuid.UUID, captureID string) (*domain.MerchantPayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM merchant_payouts
		WHERE merchant_id = $1 AND capture_id = $2
	`
	payout, err := scanPayout(r.db.QueryRow(ctx, query, merchantID, captureID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPayoutNotFound
		}
		return nil, err
	}
	return payout, nil
}

// ListByMerchant retrieves all payouts for a merchant, newest first.
func (r *PostgresPayoutRepository) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.MerchantPayout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM merchant_payouts
		WHERE merchant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payouts []domain.MerchantPayout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *payout)
	}
	return payouts, rows.Err()
}

// UpdateStatus writes a new status with an optimistic-concurrency check: the
// row is only touched when its version still matches the one the caller read,
// and the version increments with the write. Zero rows affected with the row
// still present means a concurrent writer got there first; that surfaces as
// ErrConcurrentModification and the caller must re-read before retrying.
func (r *PostgresPayoutRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutStatus, expectedVersion int64) (*domain.MerchantPayout, error) {
	query := `
		UPDATE merchant_payouts
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
		RETURNING ` + payoutColumns
	updated, err := scanPayout(r.db.QueryRow(ctx, query, id, status, expectedVersion))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("level=error component=payout_repository msg=\"status write failed\" payout_id=%s err=%v", id, err)
		return nil, err
	}

	// Distinguish a vanished row from a stale version.
	if _, findErr := r.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, ErrConcurrentModification
}
