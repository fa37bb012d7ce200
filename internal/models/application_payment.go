package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatusType string

const (
	PaymentStatusCreated   PaymentStatusType = "CREATED"
	PaymentStatusSucceeded PaymentStatusType = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatusType = "FAILED"
)

// ApplicationPayment links a Stripe PaymentIntent to the application it
// pays the fee for. Amount is in minor currency units.
type ApplicationPayment struct {
	ID            uuid.UUID         `json:"id"`
	ApplicationID uuid.UUID         `json:"application_id"`
	IntentID      string            `json:"intent_id"`
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Status        PaymentStatusType `json:"status"`
	FailureReason *string           `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
