package dtos

import "github.com/google/uuid"

// CreatePaymentRequest asks for the application fee to be collected.
// The amount is resolved server-side from the listing configuration;
// the client never supplies or recomputes it.
type CreatePaymentRequest struct {
	ApplicationID  uuid.UUID `json:"application_id" validate:"required"`
	PaymentGateway string    `json:"payment_gateway" validate:"required,eq=STRIPE"`
}

type PaymentDetailsDTO struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type CreatePaymentResponse struct {
	PaymentDetails PaymentDetailsDTO `json:"payment_details"`
}
