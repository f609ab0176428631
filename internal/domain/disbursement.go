package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disbursement represents funds paid out to a customer's linked bank account.
// Creation is idempotent on the caller-supplied idempotency key, and the
// status machine is the same PENDING/PROCESSING/SETTLED/FAILED ladder used by
// merchant payouts.
type Disbursement struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	BankLinkID     uuid.UUID       `json:"bank_link_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PayoutStatus    `json:"status"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewDisbursement validates and constructs a disbursement in PENDING. It
// reuses the payout amount and currency rules.
func NewDisbursement(customerID, bankLinkID uuid.UUID, amount decimal.Decimal, currency, idempotencyKey string) (*Disbursement, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customerId required", ErrInvalidArgument)
	}
	if bankLinkID == uuid.Nil {
		return nil, fmt.Errorf("%w: bankLinkId required", ErrInvalidArgument)
	}
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotencyKey required", ErrInvalidArgument)
	}
	normalizedAmount, err := normalizePayoutAmount(amount)
	if err != nil {
		return nil, err
	}
	normalizedCurrency, err := normalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	return &Disbursement{
		ID:             uuid.New(),
		CustomerID:     customerID,
		BankLinkID:     bankLinkID,
		Amount:         normalizedAmount,
		Currency:       normalizedCurrency,
		Status:         PayoutPending,
		IdempotencyKey: idempotencyKey,
	}, nil
}
