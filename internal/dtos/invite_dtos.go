package dtos

import (
	"time"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/invites"
	"github.com/lettora/rentals-service/internal/models"
)

type CreateInviteRequest struct {
	PropertyID   uuid.UUID `json:"property_id" validate:"required"`
	TenantID     uuid.UUID `json:"tenant_id" validate:"required"`
	ScheduleDate time.Time `json:"schedule_date" validate:"required"`
}

// InviteActionRequest carries a single lifecycle action. Reschedules must
// carry both the proposed date and a reason; every other action rejects them.
type InviteActionRequest struct {
	Action         invites.Action `json:"action" validate:"required"`
	RescheduleDate *time.Time     `json:"reschedule_date,omitempty" validate:"required_if=Action reschedule"`
	Reason         *string        `json:"reason,omitempty" validate:"required_if=Action reschedule"`
}

type InviteDTO struct {
	ID                     uuid.UUID                 `json:"id"`
	PropertyID             uuid.UUID                 `json:"property_id"`
	TenantID               uuid.UUID                 `json:"tenant_id"`
	LandlordID             uuid.UUID                 `json:"landlord_id"`
	Response               models.InviteResponseType `json:"response"`
	ScheduleDate           time.Time                 `json:"schedule_date"`
	RescheduleDate         *time.Time                `json:"reschedule_date,omitempty"`
	RescheduleReason       *string                   `json:"reschedule_reason,omitempty"`
	ResponseStepsCompleted []string                  `json:"response_steps_completed"`
	Presentation           invites.Presentation      `json:"presentation"`
	CreatedAt              time.Time                 `json:"created_at"`
	UpdatedAt              time.Time                 `json:"updated_at"`
}

type InviteEnvelope struct {
	Invite InviteDTO `json:"invite"`
}

type InviteListEnvelope struct {
	Invites []InviteDTO `json:"invites"`
}
