package invites

import (
	"errors"
	"fmt"

	"github.com/lettora/rentals-service/internal/models"
)

// Action is a proposed operation on a viewing invite. The server is the
// sole authority on the current state; clients only propose transitions.
type Action string

const (
	ActionAccept           Action = "accept"
	ActionReject           Action = "reject"
	ActionReschedule       Action = "reschedule"
	ActionCancel           Action = "cancel"
	ActionAcceptReschedule Action = "accept_reschedule"
	ActionSchedule         Action = "schedule"
	ActionAwaitFeedback    Action = "await_feedback"
	ActionApprove          Action = "approve"
)

// Actor restricts who may trigger a transition.
type Actor string

const (
	ActorTenant   Actor = "tenant"
	ActorLandlord Actor = "landlord"
	ActorSystem   Actor = "system"
)

var (
	ErrInvalidTransition = errors.New("wrong_status")
	ErrUnknownResponse   = errors.New("unknown_invite_response")
)

// Transition is a single allowed edge of the invite lifecycle.
type Transition struct {
	From   models.InviteResponseType
	Action Action
	Actor  Actor
	To     models.InviteResponseType
}

var transitionsTable = []Transition{
	// Tenant responses to the landlord's proposal
	{From: models.InviteResponsePending, Action: ActionAccept, Actor: ActorTenant, To: models.InviteResponseAccepted},
	{From: models.InviteResponsePending, Action: ActionReject, Actor: ActorTenant, To: models.InviteResponseRejected},
	{From: models.InviteResponsePending, Action: ActionReschedule, Actor: ActorTenant, To: models.InviteResponseRescheduled},
	{From: models.InviteResponseAccepted, Action: ActionReschedule, Actor: ActorTenant, To: models.InviteResponseRescheduled},
	{From: models.InviteResponseAccepted, Action: ActionCancel, Actor: ActorTenant, To: models.InviteResponseCancelled},

	// Landlord follow-ups
	{From: models.InviteResponseRescheduled, Action: ActionAcceptReschedule, Actor: ActorLandlord, To: models.InviteResponseRescheduledAccepted},
	{From: models.InviteResponseRescheduled, Action: ActionReject, Actor: ActorLandlord, To: models.InviteResponseRejected},
	{From: models.InviteResponseAccepted, Action: ActionSchedule, Actor: ActorLandlord, To: models.InviteResponseScheduled},
	{From: models.InviteResponseRescheduledAccepted, Action: ActionSchedule, Actor: ActorLandlord, To: models.InviteResponseScheduled},
	{From: models.InviteResponseAwaitingFeedback, Action: ActionApprove, Actor: ActorLandlord, To: models.InviteResponseApproved},

	// Sweeper: a viewing whose date has passed awaits tenant feedback
	{From: models.InviteResponseAccepted, Action: ActionAwaitFeedback, Actor: ActorSystem, To: models.InviteResponseAwaitingFeedback},
	{From: models.InviteResponseScheduled, Action: ActionAwaitFeedback, Actor: ActorSystem, To: models.InviteResponseAwaitingFeedback},
	{From: models.InviteResponseRescheduledAccepted, Action: ActionAwaitFeedback, Actor: ActorSystem, To: models.InviteResponseAwaitingFeedback},
}

var knownResponses = map[models.InviteResponseType]struct{}{
	models.InviteResponsePending:             {},
	models.InviteResponseAccepted:            {},
	models.InviteResponseRejected:            {},
	models.InviteResponseRescheduled:         {},
	models.InviteResponseRescheduledAccepted: {},
	models.InviteResponseCancelled:           {},
	models.InviteResponseScheduled:           {},
	models.InviteResponseAwaitingFeedback:    {},
	models.InviteResponseApproved:            {},
}

// IsKnownResponse reports whether r is one of the enumerated values.
// Any other string in a stored record is an error condition, never a
// value to silently default.
func IsKnownResponse(r models.InviteResponseType) bool {
	_, ok := knownResponses[r]
	return ok
}

// IsTerminal reports whether r admits no further transitions.
func IsTerminal(r models.InviteResponseType) bool {
	switch r {
	case models.InviteResponseRejected, models.InviteResponseCancelled, models.InviteResponseApproved:
		return true
	}
	return false
}

// Propose validates action against the transition table and returns the
// target state. It never mutates anything; callers persist the result
// only after the write succeeds.
func Propose(from models.InviteResponseType, action Action, actor Actor) (models.InviteResponseType, error) {
	if !IsKnownResponse(from) {
		return "", fmt.Errorf("%w: %q", ErrUnknownResponse, from)
	}
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Action == action && tr.Actor == actor {
			return tr.To, nil
		}
	}
	return "", fmt.Errorf("%w: %s cannot %s from %s", ErrInvalidTransition, actor, action, from)
}

// AuditLabel is the entry appended to responseStepsCompleted for a
// confirmed transition.
func AuditLabel(action Action, to models.InviteResponseType) string {
	return string(action) + ":" + string(to)
}

// ActionsFor lists the actions actor may legally take from state r.
func ActionsFor(r models.InviteResponseType, actor Actor) []Action {
	var out []Action
	for _, tr := range transitionsTable {
		if tr.From == r && tr.Actor == actor {
			out = append(out, tr.Action)
		}
	}
	return out
}
