package invites

import (
	"fmt"

	"github.com/lettora/rentals-service/internal/models"
)

// Presentation is the pure, exhaustive derivation of what a state means
// for display: one badge label and one set of enabled tenant actions per
// state. Unknown stored values surface as errors, they are never
// rendered as a PENDING-like default.
type Presentation struct {
	Badge              string   `json:"badge"`
	TenantActions      []Action `json:"tenant_actions"`
	ShowScheduleDate   bool     `json:"show_schedule_date"`
	ShowRescheduleDate bool     `json:"show_reschedule_date"`
	StrikeScheduleDate bool     `json:"strike_schedule_date"`
	FeedbackPrompt     bool     `json:"feedback_prompt"`
}

// Derive maps an invite to its presentation. Pure function of the
// record; callers re-derive after every confirmed mutation.
func Derive(inv *models.ViewingInvite) (Presentation, error) {
	switch inv.Response {
	case models.InviteResponsePending:
		return Presentation{
			Badge:            "Invite pending",
			TenantActions:    ActionsFor(inv.Response, ActorTenant),
			ShowScheduleDate: true,
		}, nil
	case models.InviteResponseAccepted:
		return Presentation{
			Badge:            "Viewing accepted",
			TenantActions:    ActionsFor(inv.Response, ActorTenant),
			ShowScheduleDate: true,
		}, nil
	case models.InviteResponseRejected:
		return Presentation{
			Badge:              "Invite declined",
			ShowScheduleDate:   true,
			StrikeScheduleDate: true,
		}, nil
	case models.InviteResponseRescheduled:
		return Presentation{
			Badge:              "Reschedule requested",
			ShowScheduleDate:   true,
			ShowRescheduleDate: true,
		}, nil
	case models.InviteResponseRescheduledAccepted:
		return Presentation{
			Badge:              "New time confirmed",
			ShowScheduleDate:   true,
			ShowRescheduleDate: true,
		}, nil
	case models.InviteResponseCancelled:
		return Presentation{
			Badge:              "Viewing cancelled",
			ShowScheduleDate:   true,
			StrikeScheduleDate: true,
		}, nil
	case models.InviteResponseScheduled:
		return Presentation{
			Badge:            "Viewing scheduled",
			ShowScheduleDate: true,
		}, nil
	case models.InviteResponseAwaitingFeedback:
		return Presentation{
			Badge:            "Awaiting your feedback",
			ShowScheduleDate: true,
			FeedbackPrompt:   true,
		}, nil
	case models.InviteResponseApproved:
		return Presentation{
			Badge:            "Application approved",
			ShowScheduleDate: true,
		}, nil
	default:
		return Presentation{}, fmt.Errorf("%w: %q", ErrUnknownResponse, inv.Response)
	}
}
