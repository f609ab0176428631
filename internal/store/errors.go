package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrBankLinkNotFound     = errors.New("bank link not found")
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrCustomerNotFound     = errors.New("customer not found")
	ErrDisbursementNotFound = errors.New("disbursement not found")

	// ErrDuplicateBankLink signals the (customer_id, provider,
	// provider_account_id) uniqueness constraint fired on insert.
	ErrDuplicateBankLink = errors.New("bank link already exists for this customer, provider, and account")

	// ErrDuplicatePayout signals the (merchant_id, capture_id) uniqueness
	// constraint fired on insert.
	ErrDuplicatePayout = errors.New("payout already exists for this merchant and capture")

	ErrDuplicateCustomerEmail  = errors.New("email already exists")
	ErrDuplicateIdempotencyKey = errors.New("disbursement already exists for this idempotency key")

	// ErrConcurrentModification signals a stale-version write was rejected;
	// the caller must re-read and retry.
	ErrConcurrentModification = errors.New("resource was modified concurrently")

	// ErrBankLinkStale signals a guarded transition write matched no row
	// because the link's status changed underneath the caller.
	ErrBankLinkStale = errors.New("bank link status changed concurrently")

	// ErrPrimaryConflict signals the partial unique index on
	// (customer_id) WHERE is_primary rejected a second primary row.
	ErrPrimaryConflict = errors.New("another bank link is already primary for this customer")

	// ErrDisbursementLinkInactive signals the guarded insert found no ACTIVE
	// bank link owned by the customer at write time.
	ErrDisbursementLinkInactive = errors.New("bank link is not active for this customer")
)

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505), optionally restricted to a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
