package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageThread groups messages between one tenant and one landlord
// about one property.
type MessageThread struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	PropertyID uuid.UUID `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID       uuid.UUID `json:"id"`
	ThreadID uuid.UUID `json:"thread_id"`
	SenderID uuid.UUID `json:"sender_id"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}
