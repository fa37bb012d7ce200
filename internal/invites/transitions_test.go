package invites

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/utils"
)

func TestProposeTenantTransitions(t *testing.T) {
	cases := []struct {
		from   models.InviteResponseType
		action Action
		want   models.InviteResponseType
	}{
		{models.InviteResponsePending, ActionAccept, models.InviteResponseAccepted},
		{models.InviteResponsePending, ActionReject, models.InviteResponseRejected},
		{models.InviteResponsePending, ActionReschedule, models.InviteResponseRescheduled},
		{models.InviteResponseAccepted, ActionReschedule, models.InviteResponseRescheduled},
		{models.InviteResponseAccepted, ActionCancel, models.InviteResponseCancelled},
	}
	for _, tc := range cases {
		got, err := Propose(tc.from, tc.action, ActorTenant)
		require.NoError(t, err, "%s %s", tc.from, tc.action)
		assert.Equal(t, tc.want, got)
	}
}

func TestProposeIllegalTransition(t *testing.T) {
	// A cancelled invite is terminal for the tenant.
	_, err := Propose(models.InviteResponseCancelled, ActionAccept, ActorTenant)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Tenants cannot take landlord actions.
	_, err = Propose(models.InviteResponseRescheduled, ActionAcceptReschedule, ActorTenant)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Accepting twice is not a legal edge.
	_, err = Propose(models.InviteResponseAccepted, ActionAccept, ActorTenant)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProposeUnknownResponse(t *testing.T) {
	_, err := Propose(models.InviteResponseType("SOMETHING_ELSE"), ActionAccept, ActorTenant)
	assert.ErrorIs(t, err, ErrUnknownResponse)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.InviteResponseRejected))
	assert.True(t, IsTerminal(models.InviteResponseCancelled))
	assert.True(t, IsTerminal(models.InviteResponseApproved))
	assert.False(t, IsTerminal(models.InviteResponsePending))
	assert.False(t, IsTerminal(models.InviteResponseAwaitingFeedback))
}

func TestDeriveRescheduledShowsBothDates(t *testing.T) {
	inv := &models.ViewingInvite{
		Response:       models.InviteResponseRescheduled,
		ScheduleDate:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		RescheduleDate: utils.Ptr(time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC)),
	}
	p, err := Derive(inv)
	require.NoError(t, err)
	assert.True(t, p.ShowScheduleDate)
	assert.True(t, p.ShowRescheduleDate)
}

func TestDeriveCancelledIsTerminal(t *testing.T) {
	inv := &models.ViewingInvite{Response: models.InviteResponseCancelled}
	p, err := Derive(inv)
	require.NoError(t, err)
	assert.True(t, p.StrikeScheduleDate)
	assert.Empty(t, p.TenantActions)
}

func TestDeriveUnknownResponseErrors(t *testing.T) {
	inv := &models.ViewingInvite{Response: models.InviteResponseType("SOMETHING_ELSE")}
	_, err := Derive(inv)
	require.ErrorIs(t, err, ErrUnknownResponse)
}

func TestDeriveCoversEveryKnownState(t *testing.T) {
	for r := range knownResponses {
		inv := &models.ViewingInvite{Response: r}
		p, err := Derive(inv)
		require.NoError(t, err, "state %s", r)
		assert.NotEmpty(t, p.Badge, "state %s", r)
	}
}

func TestAuditLabel(t *testing.T) {
	assert.Equal(t, "accept:ACCEPTED", AuditLabel(ActionAccept, models.InviteResponseAccepted))
}
