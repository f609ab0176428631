/**
 * @description
 * This file defines the domain models for events published by the
 * payments-service. These structs are the contract for messages emitted to the
 * message broker (RabbitMQ) after a lifecycle change commits.
 *
 * @notes
 * - Having a clear, versioned contract for events is crucial for maintaining a
 *   stable and scalable microservices architecture.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BankLinkStatusEvent is published when a bank link changes status or the
// customer's primary designation moves to a different link.
type BankLinkStatusEvent struct {
	BankLinkID uuid.UUID      `json:"bank_link_id"`
	CustomerID uuid.UUID      `json:"customer_id"`
	Status     BankLinkStatus `json:"status"`
	Primary    bool           `json:"primary"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PayoutStatusEvent is published when a merchant payout changes status.
type PayoutStatusEvent struct {
	PayoutID   uuid.UUID    `json:"payout_id"`
	MerchantID uuid.UUID    `json:"merchant_id"`
	CaptureID  string       `json:"capture_id"`
	Status     PayoutStatus `json:"status"`
	Timestamp  time.Time    `json:"timestamp"`
}
