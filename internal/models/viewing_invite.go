package models

import (
	"time"

	"github.com/google/uuid"
)

type InviteResponseType string

const (
	InviteResponsePending             InviteResponseType = "PENDING"
	InviteResponseAccepted            InviteResponseType = "ACCEPTED"
	InviteResponseRejected            InviteResponseType = "REJECTED"
	InviteResponseRescheduled         InviteResponseType = "RESCHEDULED"
	InviteResponseRescheduledAccepted InviteResponseType = "RESCHEDULED_ACCEPTED"
	InviteResponseCancelled           InviteResponseType = "CANCELLED"
	InviteResponseScheduled           InviteResponseType = "SCHEDULED"
	InviteResponseAwaitingFeedback    InviteResponseType = "AWAITING_FEEDBACK"
	InviteResponseApproved            InviteResponseType = "APPROVED"
)

// ViewingInvite is a landlord-issued proposal for a tenant to view a
// property at a scheduled date/time.
type ViewingInvite struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	TenantID   uuid.UUID `json:"tenant_id"`

	Response InviteResponseType `json:"response"`

	ScheduleDate     time.Time  `json:"schedule_date"`
	RescheduleDate   *time.Time `json:"reschedule_date,omitempty"`
	RescheduleReason *string    `json:"reschedule_reason,omitempty"`

	// ResponseStepsCompleted is an append-only audit trail of transition labels.
	ResponseStepsCompleted []string `json:"response_steps_completed"`

	// ReminderSentAt is set once the upcoming-viewing SMS has gone out.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *ViewingInvite) GetID() string {
	return v.ID.String()
}

// EffectiveDate is the reschedule date once one has been proposed,
// otherwise the originally scheduled date.
func (v *ViewingInvite) EffectiveDate() time.Time {
	if v.RescheduleDate != nil {
		return *v.RescheduleDate
	}
	return v.ScheduleDate
}
