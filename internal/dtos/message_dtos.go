package dtos

import (
	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/models"
)

type StartThreadRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	LandlordID uuid.UUID `json:"landlord_id" validate:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type ThreadEnvelope struct {
	Thread models.MessageThread `json:"thread"`
}

type ThreadListEnvelope struct {
	Threads []models.MessageThread `json:"threads"`
}

type MessageEnvelope struct {
	Message models.Message `json:"message"`
}

type MessageListEnvelope struct {
	Messages []models.Message `json:"messages"`
}
