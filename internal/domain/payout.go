/**
 * @description
 * This file defines the MerchantPayout domain model: a disbursement of
 * captured funds to a merchant's settlement account. The struct maps directly
 * to the `merchant_payouts` table.
 *
 * @notes
 * - The (merchant_id, capture_id) pair is unique: at most one payout exists
 *   per captured transaction.
 * - Amounts use shopspring/decimal to avoid floating-point inaccuracies with
 *   financial data. An amount carrying more than 2 fractional digits is
 *   rejected, never rounded.
 * - `Version` increments on every persisted mutation and backs the
 *   optimistic-concurrency check in the store layer.
 */

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus enumerates the payout lifecycle states.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "PENDING"
	PayoutProcessing PayoutStatus = "PROCESSING"
	PayoutSettled    PayoutStatus = "SETTLED"
	PayoutFailed     PayoutStatus = "FAILED"
)

// MaxCaptureIDLength bounds the capture business reference.
const MaxCaptureIDLength = 64

// MerchantPayout represents one payout owed to a merchant for a capture.
type MerchantPayout struct {
	ID                  uuid.UUID       `json:"id"`
	MerchantID          uuid.UUID       `json:"merchant_id"`
	SettlementAccountID uuid.UUID       `json:"settlement_account_id"`
	CaptureID           string          `json:"capture_id"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	Status              PayoutStatus    `json:"status"`
	Version             int64           `json:"version"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewMerchantPayout constructs a payout in PENDING after validating the
// amount and currency rules. Validation failures surface before any store
// access.
func NewMerchantPayout(merchantID, settlementAccountID uuid.UUID, captureID string, amount decimal.Decimal, currency string) (*MerchantPayout, error) {
	if merchantID == uuid.Nil {
		return nil, fmt.Errorf("%w: merchantId required", ErrInvalidArgument)
	}
	if settlementAccountID == uuid.Nil {
		return nil, fmt.Errorf("%w: settlementAccountId required", ErrInvalidArgument)
	}
	captureID = strings.TrimSpace(captureID)
	if captureID == "" {
		return nil, fmt.Errorf("%w: captureId required", ErrInvalidArgument)
	}
	if len(captureID) > MaxCaptureIDLength {
		return nil, fmt.Errorf("%w: captureId exceeds %d characters", ErrInvalidArgument, MaxCaptureIDLength)
	}
	normalizedAmount, err := normalizePayoutAmount(amount)
	if err != nil {
		return nil, err
	}
	normalizedCurrency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	return &MerchantPayout{
		ID:                  uuid.New(),
		MerchantID:          merchantID,
		SettlementAccountID: settlementAccountID,
		CaptureID:           captureID,
		Amount:              normalizedAmount,
		Currency:            normalizedCurrency,
		Status:              PayoutPending,
		Version:             0,
	}, nil
}

// normalizePayoutAmount enforces a strictly positive amount with at most two
// fractional digits, scaled to exactly two.
func normalizePayoutAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: amount must be > 0", ErrInvalidArgument)
	}
	// Reject sub-cent precision instead of silently rounding.
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("%w: amount must have at most 2 fractional digits", ErrInvalidArgument)
	}
	return amount.Round(2), nil
}

// normalizeCurrency trims, uppercases, and checks the 3-letter code rule.
func normalizeCurrency(currency string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		normalized = "USD"
	}
	if len(normalized) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidArgument)
	}
	for _, r := range normalized {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidArgument)
		}
	}
	return normalized, nil
}

// MarkProcessing moves the payout PENDING -> PROCESSING.
func (p *MerchantPayout) MarkProcessing() error {
	if p.Status != PayoutPending {
		return fmt.Errorf("%w: only PENDING payouts can start processing, payout is %s", ErrIllegalTransition, p.Status)
	}
	p.Status = PayoutProcessing
	return nil
}

// MarkSettled moves the payout PROCESSING -> SETTLED.
func (p *MerchantPayout) MarkSettled() error {
	if p.Status != PayoutProcessing {
		return fmt.Errorf("%w: only PROCESSING payouts can settle, payout is %s", ErrIllegalTransition, p.Status)
	}
	p.Status = PayoutSettled
	return nil
}

// MarkFailed moves the payout from PENDING or PROCESSING to FAILED. Failing a
// payout that already reached SETTLED or FAILED is a no-op rather than an
// error; the return value reports whether the status actually changed.
func (p *MerchantPayout) MarkFailed() (bool, error) {
	switch p.Status {
	case PayoutSettled, PayoutFailed:
		return false, nil
	case PayoutPending, PayoutProcessing:
		p.Status = PayoutFailed
		return true, nil
	default:
		return false, fmt.Errorf("%w: cannot fail a %s payout", ErrIllegalTransition, p.Status)
	}
}

// Terminal reports whether the payout has reached a final state.
func (p *MerchantPayout) Terminal() bool {
	return p.Status == PayoutSettled || p.Status == PayoutFailed
}
