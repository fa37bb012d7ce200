package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/invites"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/utils"
)

/* ------------------------------------------------------------------
   In-memory fakes
------------------------------------------------------------------ */

type fakeInviteRepo struct {
	invites map[uuid.UUID]*models.ViewingInvite
	writes  int

	// forceConflict makes the next atomic update report a lost race.
	forceConflict bool
}

func newFakeInviteRepo(invs ...*models.ViewingInvite) *fakeInviteRepo {
	r := &fakeInviteRepo{invites: make(map[uuid.UUID]*models.ViewingInvite)}
	for _, inv := range invs {
		r.invites[inv.ID] = inv
	}
	return r
}

func (r *fakeInviteRepo) Create(_ context.Context, inv *models.ViewingInvite) error {
	inv.RowVersion = 1
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	r.invites[inv.ID] = inv
	r.writes++
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ViewingInvite, error) {
	inv, ok := r.invites[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInviteRepo) ListByTenantID(_ context.Context, tenantID uuid.UUID) ([]*models.ViewingInvite, error) {
	var out []*models.ViewingInvite
	for _, inv := range r.invites {
		if inv.TenantID == tenantID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListByLandlordID(_ context.Context, landlordID uuid.UUID) ([]*models.ViewingInvite, error) {
	var out []*models.ViewingInvite
	for _, inv := range r.invites {
		if inv.LandlordID == landlordID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListDueForFeedback(_ context.Context, cutoff time.Time) ([]*models.ViewingInvite, error) {
	confirmed := map[models.InviteResponseType]bool{
		models.InviteResponseAccepted:            true,
		models.InviteResponseScheduled:           true,
		models.InviteResponseRescheduledAccepted: true,
	}
	var out []*models.ViewingInvite
	for _, inv := range r.invites {
		if confirmed[inv.Response] && inv.EffectiveDate().Before(cutoff) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) ListUpcomingForReminder(_ context.Context, from, until time.Time) ([]*models.ViewingInvite, error) {
	confirmed := map[models.InviteResponseType]bool{
		models.InviteResponseAccepted:            true,
		models.InviteResponseScheduled:           true,
		models.InviteResponseRescheduledAccepted: true,
	}
	var out []*models.ViewingInvite
	for _, inv := range r.invites {
		when := inv.EffectiveDate()
		if confirmed[inv.Response] && inv.ReminderSentAt == nil &&
			!when.Before(from) && when.Before(until) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInviteRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	inv, ok := r.invites[id]
	if !ok || inv.ReminderSentAt != nil {
		return nil
	}
	now := time.Now()
	inv.ReminderSentAt = &now
	r.writes++
	return nil
}

func (r *fakeInviteRepo) UpdateIfVersion(_ context.Context, inv *models.ViewingInvite, expected int64) (pgconn.CommandTag, error) {
	stored, ok := r.invites[inv.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *inv
	cp.RowVersion = expected + 1
	r.invites[inv.ID] = &cp
	r.writes++
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeInviteRepo) UpdateResponseAtomic(
	_ context.Context,
	id uuid.UUID,
	expectedVersion int64,
	newResponse models.InviteResponseType,
	auditLabel string,
	rescheduleDate *time.Time,
	rescheduleReason *string,
) (*models.ViewingInvite, error) {
	stored, ok := r.invites[id]
	if !ok {
		return nil, utils.ErrNoRowsUpdated
	}
	if r.forceConflict {
		r.forceConflict = false
		return nil, utils.ErrRowVersionConflict
	}
	if stored.RowVersion != expectedVersion {
		return nil, utils.ErrRowVersionConflict
	}
	stored.Response = newResponse
	stored.ResponseStepsCompleted = append(stored.ResponseStepsCompleted, auditLabel)
	if rescheduleDate != nil {
		stored.RescheduleDate = rescheduleDate
	}
	if rescheduleReason != nil {
		stored.RescheduleReason = rescheduleReason
	}
	stored.RowVersion++
	stored.UpdatedAt = time.Now()
	r.writes++
	cp := *stored
	return &cp, nil
}

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*models.Account
}

func newFakeAccountRepo(accounts ...*models.Account) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[uuid.UUID]*models.Account)}
	for _, a := range accounts {
		r.accounts[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) Create(_ context.Context, a *models.Account) error {
	r.accounts[a.ID] = a
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return a, nil
}

/* ------------------------------------------------------------------
   Fixtures
------------------------------------------------------------------ */

func pendingInvite(tenantID, landlordID, propertyID uuid.UUID) *models.ViewingInvite {
	inv := &models.ViewingInvite{
		ID:                     uuid.New(),
		PropertyID:             propertyID,
		LandlordID:             landlordID,
		TenantID:               tenantID,
		Response:               models.InviteResponsePending,
		ScheduleDate:           time.Now().Add(72 * time.Hour),
		ResponseStepsCompleted: []string{},
	}
	inv.RowVersion = 1
	return inv
}

func newInviteService(inviteRepo *fakeInviteRepo, propRepo *fakeListingRepo, accountRepo *fakeAccountRepo) *InviteService {
	if accountRepo == nil {
		accountRepo = newFakeAccountRepo()
	}
	// nil outbound clients: notification paths are skipped in unit tests.
	return NewInviteService(&config.Config{}, inviteRepo, propRepo, accountRepo, nil, nil)
}

/* ------------------------------------------------------------------
   Tests
------------------------------------------------------------------ */

func TestCreateInvite_RequiresOwnership(t *testing.T) {
	landlordID := uuid.New()
	listing := legacyListingNoFee(landlordID)
	inviteRepo := newFakeInviteRepo()
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	_, err := svc.Create(context.Background(), uuid.New(), dtos.CreateInviteRequest{
		PropertyID:   listing.Property.ID,
		TenantID:     uuid.New(),
		ScheduleDate: time.Now().Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, utils.ErrNotInviteRecipient)
	assert.Zero(t, inviteRepo.writes)
}

func TestCreateInvite_StartsPending(t *testing.T) {
	landlordID := uuid.New()
	listing := legacyListingNoFee(landlordID)
	svc := newInviteService(newFakeInviteRepo(), newFakeListingRepo(listing), nil)

	dto, err := svc.Create(context.Background(), landlordID, dtos.CreateInviteRequest{
		PropertyID:   listing.Property.ID,
		TenantID:     uuid.New(),
		ScheduleDate: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, models.InviteResponsePending, dto.Response)
	assert.Empty(t, dto.ResponseStepsCompleted)
	assert.NotEmpty(t, dto.Presentation.TenantActions)
}

func TestRespond_AcceptAppendsAuditLabel(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	inviteRepo := newFakeInviteRepo(inv)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	dto, err := svc.Respond(context.Background(), tenantID, invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionAccept})
	require.NoError(t, err)

	assert.Equal(t, models.InviteResponseAccepted, dto.Response)
	assert.Equal(t, []string{"accept:ACCEPTED"}, dto.ResponseStepsCompleted)
	assert.Equal(t, 1, inviteRepo.writes)
}

func TestRespond_IllegalTransitionWritesNothing(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	inv.Response = models.InviteResponseCancelled
	inviteRepo := newFakeInviteRepo(inv)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	_, err := svc.Respond(context.Background(), tenantID, invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionAccept})
	assert.ErrorIs(t, err, invites.ErrInvalidTransition)
	assert.Zero(t, inviteRepo.writes)
	assert.Equal(t, models.InviteResponseCancelled, inviteRepo.invites[inv.ID].Response)
}

func TestRespond_ActorGating(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	svc := newInviteService(newFakeInviteRepo(inv), newFakeListingRepo(listing), nil)

	// A landlord cannot take a tenant-only action even on their own invite.
	_, err := svc.Respond(context.Background(), landlordID, invites.ActorLandlord, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionAccept})
	assert.ErrorIs(t, err, invites.ErrInvalidTransition)

	// A stranger is rejected before the transition is even considered.
	_, err = svc.Respond(context.Background(), uuid.New(), invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionAccept})
	assert.ErrorIs(t, err, utils.ErrNotInviteRecipient)
}

func TestRespond_RescheduleRequiresDateAndReason(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	inviteRepo := newFakeInviteRepo(inv)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	_, err := svc.Respond(context.Background(), tenantID, invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionReschedule})
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Zero(t, inviteRepo.writes)
}

func TestRespond_RescheduleRecordsProposal(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	inviteRepo := newFakeInviteRepo(inv)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	newDate := time.Now().Add(96 * time.Hour)
	dto, err := svc.Respond(context.Background(), tenantID, invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{
			Action:         invites.ActionReschedule,
			RescheduleDate: &newDate,
			Reason:         utils.Ptr("work conflict"),
		})
	require.NoError(t, err)

	assert.Equal(t, models.InviteResponseRescheduled, dto.Response)
	require.NotNil(t, dto.RescheduleDate)
	assert.Equal(t, []string{"reschedule:RESCHEDULED"}, dto.ResponseStepsCompleted)
}

func TestRespond_StaleVersionReturnsConflict(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	inviteRepo := newFakeInviteRepo(inv)
	// Another writer lands between our read and our write.
	inviteRepo.forceConflict = true
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	_, err := svc.Respond(context.Background(), tenantID, invites.ActorTenant, inv.ID,
		dtos.InviteActionRequest{Action: invites.ActionAccept})
	var conflict *utils.RowVersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.NotNil(t, conflict.Current)
}

func TestSweepAwaitingFeedback_MovesPastViewings(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)

	past := pendingInvite(tenantID, landlordID, listing.Property.ID)
	past.Response = models.InviteResponseScheduled
	past.ScheduleDate = time.Now().Add(-72 * time.Hour)

	upcoming := pendingInvite(tenantID, landlordID, listing.Property.ID)
	upcoming.Response = models.InviteResponseScheduled
	upcoming.ScheduleDate = time.Now().Add(72 * time.Hour)

	inviteRepo := newFakeInviteRepo(past, upcoming)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	svc.SweepAwaitingFeedback(context.Background())

	assert.Equal(t, models.InviteResponseAwaitingFeedback, inviteRepo.invites[past.ID].Response)
	assert.Contains(t, inviteRepo.invites[past.ID].ResponseStepsCompleted, "await_feedback:AWAITING_FEEDBACK")
	assert.Equal(t, models.InviteResponseScheduled, inviteRepo.invites[upcoming.ID].Response)
}

func TestSweepAwaitingFeedback_IsRepeatable(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	past := pendingInvite(tenantID, landlordID, listing.Property.ID)
	past.Response = models.InviteResponseAccepted
	past.ScheduleDate = time.Now().Add(-72 * time.Hour)
	inviteRepo := newFakeInviteRepo(past)
	svc := newInviteService(inviteRepo, newFakeListingRepo(listing), nil)

	svc.SweepAwaitingFeedback(context.Background())
	firstWrites := inviteRepo.writes
	svc.SweepAwaitingFeedback(context.Background())

	assert.Equal(t, firstWrites, inviteRepo.writes)
	assert.Equal(t, models.InviteResponseAwaitingFeedback, inviteRepo.invites[past.ID].Response)
}

func TestSendViewingReminders_RemindsEachInviteOnce(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	soon := pendingInvite(tenantID, landlordID, listing.Property.ID)
	soon.Response = models.InviteResponseScheduled
	soon.ScheduleDate = time.Now().Add(6 * time.Hour)
	farOut := pendingInvite(tenantID, landlordID, listing.Property.ID)
	farOut.Response = models.InviteResponseScheduled
	farOut.ScheduleDate = time.Now().Add(96 * time.Hour)
	inviteRepo := newFakeInviteRepo(soon, farOut)
	accountRepo := newFakeAccountRepo(&models.Account{
		ID:          tenantID,
		AccountType: models.AccountTypeTenant,
		PhoneNumber: "+15125550199",
	})
	svc := NewInviteService(
		&config.Config{LDFlag_SendViewingReminders: true},
		inviteRepo, newFakeListingRepo(listing), accountRepo, nil, nil,
	)

	svc.SendViewingReminders(context.Background())
	firstWrites := inviteRepo.writes
	svc.SendViewingReminders(context.Background())

	assert.Equal(t, firstWrites, inviteRepo.writes)
	assert.NotNil(t, inviteRepo.invites[soon.ID].ReminderSentAt)
	assert.Nil(t, inviteRepo.invites[farOut.ID].ReminderSentAt)
}

func TestGetByID_PartyCheck(t *testing.T) {
	tenantID, landlordID := uuid.New(), uuid.New()
	listing := legacyListingNoFee(landlordID)
	inv := pendingInvite(tenantID, landlordID, listing.Property.ID)
	svc := newInviteService(newFakeInviteRepo(inv), newFakeListingRepo(listing), nil)

	_, err := svc.GetByID(context.Background(), tenantID, inv.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(context.Background(), landlordID, inv.ID)
	require.NoError(t, err)
	_, err = svc.GetByID(context.Background(), uuid.New(), inv.ID)
	assert.ErrorIs(t, err, utils.ErrNotInviteRecipient)

	_, err = svc.GetByID(context.Background(), tenantID, uuid.New())
	assert.ErrorIs(t, err, utils.ErrInviteNotFound)
}
