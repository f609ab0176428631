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

const disbursementKeyConstraint = "uq_disbursements_idempotency_key"

// PostgresDisbursementRepository is the PostgreSQL implementation of the DisbursementRepository.
type PostgresDisbursementRepository struct {
	db *pgxpool.Pool
}

// NewPostgresDisbursementRepository creates a new instance of PostgresDisbursementRepository.
func NewPostgresDisbursementRepository(db *pgxpool.Pool) *PostgresDisbursementRepository {
	return &PostgresDisbursementRepository{db: db}
}

const disbursementColumns = `id, customer_id, bank_link_id, amount, currency, status, idempotency_key, created_at`

func scanDisbursement(row pgx.Row) (*domain.Disbursement, error) {
	var d domain.Disbursement
	err := row.Scan(
		&d.ID,
		&d.CustomerID,
		&d.BankLinkID,
		&d.Amount,
		&d.Currency,
		&d.Status,
		&d.IdempotencyKey,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert persists a new disbursement record. The insert is guarded: the row
// only lands when the destination link is still ACTIVE and owned by the
// customer at write time, closing the gap between the service's eligibility
// check and the write. A violation of the idempotency key constraint maps to
// ErrDuplicateIdempotencyKey so the caller can fall back to the existing row;
// a guard miss maps to ErrDisbursementLinkInactive.
func (r *PostgresDisbursementRepository) Insert(ctx context.Context, d *domain.Disbursement) (*domain.Disbursement, error) {
	query := `
        INSERT INTO disbursements (id, customer_id, bank_link_id, amount, currency, status, idempotency_key)
        SELECT $1, $2, $3, $4, $5, $6, $7
        WHERE EXISTS (
            SELECT 1 FROM bank_links
            WHERE id = $3 AND customer_id = $2 AND status = $8
        )
        RETURNING ` + disbursementColumns
	inserted, err := scanDisbursement(r.db.QueryRow(ctx, query,
		d.ID,
		d.CustomerID,
		d.BankLinkID,
		d.Amount,
		d.Currency,
		d.Status,
		d.IdempotencyKey,
		domain.BankLinkActive,
	))
	if err != nil {
		if isUniqueViolation(err, disbursementKeyConstraint) {
			return nil, ErrDuplicateIdempotencyKey
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDisbursementLinkInactive
		}
		log.Printf("level=error component=disbursement_repository msg=\"insert failed\" customer_id=%s err=%v", d.CustomerID, err)
		return nil, err
	}
	return inserted, nil
}

// FindByID retrieves a disbursement by id.
func (r *PostgresDisbursementRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Disbursement, error) {
	d, err := scanDisbursement(r.db.QueryRow(ctx, `SELECT `+disbursementColumns+` FROM disbursements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDisbursementNotFound
		}
		return nil, err
	}
	return d, nil
}

// FindByIdempotencyKey retrieves a disbursement by its caller-supplied key.
func (r *PostgresDisbursementRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Disbursement, error) {
	d, err := scanDisbursement(r.db.QueryRow(ctx, `SELECT `+disbursementColumns+` FROM disbursements WHERE idempotency_key = $1`, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDisbursementNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByCustomer retrieves all disbursements for a customer, newest first.
func (r *PostgresDisbursementRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Disbursement, error) {
	query := `
		SELECT ` + disbursementColumns + `
		FROM disbursements
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
