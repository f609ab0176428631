/**
 * @description
 * This file ensures the database schema required by the service exists. The
 * statements are idempotent so the service can run them on every boot.
 *
 * The unique constraints here back the service's idempotency and consistency
 * guarantees: the business-key constraints make concurrent duplicate creates
 * collapse to a single row, and the partial index on bank_links guarantees at
 * most one primary link per customer even if application-level checks race.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_customers_email UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS bank_links (
    id UUID PRIMARY KEY,
    customer_id UUID NOT NULL REFERENCES customers (id),
    provider TEXT NOT NULL,
    provider_account_id TEXT NOT NULL,
    institution_name TEXT,
    last4 TEXT,
    status TEXT NOT NULL,
    is_primary BOOLEAN NOT NULL DEFAULT FALSE,
    consent_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    activated_at TIMESTAMPTZ,
    revoked_at TIMESTAMPTZ,
    CONSTRAINT uk_cust_provider_account UNIQUE (customer_id, provider, provider_account_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_bank_links_one_primary
    ON bank_links (customer_id) WHERE is_primary;

CREATE TABLE IF NOT EXISTS merchant_payouts (
    id UUID PRIMARY KEY,
    merchant_id UUID NOT NULL,
    merchant_settlement_account_id UUID NOT NULL,
    capture_id TEXT NOT NULL,
    amount NUMERIC(19, 2) NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    version BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_payout_merchant_capture UNIQUE (merchant_id, capture_id)
);

CREATE INDEX IF NOT EXISTS idx_merchant_payouts_merchant ON merchant_payouts (merchant_id);

CREATE TABLE IF NOT EXISTS disbursements (
    id UUID PRIMARY KEY,
    customer_id UUID NOT NULL REFERENCES customers (id),
    bank_link_id UUID NOT NULL REFERENCES bank_links (id),
    amount NUMERIC(19, 2) NOT NULL,
    currency TEXT NOT NULL,
    status TEXT NOT NULL,
    idempotency_key TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_disbursements_idempotency_key UNIQUE (idempotency_key)
);

CREATE INDEX IF NOT EXISTS idx_disbursements_customer ON disbursements (customer_id);
`

// EnsureSchema creates the service's tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaDDL)
	return err
}
