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
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/utils"
)

/* ------------------------------------------------------------------
   In-memory fakes
------------------------------------------------------------------ */

type fakeAppRepo struct {
	apps   map[uuid.UUID]*models.RentalApplication
	writes int
}

func newFakeAppRepo(apps ...*models.RentalApplication) *fakeAppRepo {
	r := &fakeAppRepo{apps: make(map[uuid.UUID]*models.RentalApplication)}
	for _, a := range apps {
		r.apps[a.ID] = a
	}
	return r
}

func (r *fakeAppRepo) Create(_ context.Context, app *models.RentalApplication) error {
	app.RowVersion = 1
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	r.apps[app.ID] = app
	r.writes++
	return nil
}

func (r *fakeAppRepo) GetByID(_ context.Context, id uuid.UUID) (*models.RentalApplication, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (r *fakeAppRepo) GetOpenByTenantAndProperty(_ context.Context, tenantID, propertyID uuid.UUID) (*models.RentalApplication, error) {
	for _, a := range r.apps {
		if a.TenantID == tenantID && a.PropertyID == propertyID && a.Status != models.ApplicationStatusCompleted {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeAppRepo) ListByTenantID(_ context.Context, tenantID uuid.UUID) ([]*models.RentalApplication, error) {
	var out []*models.RentalApplication
	for _, a := range r.apps {
		if a.TenantID == tenantID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppRepo) UpdateIfVersion(_ context.Context, app *models.RentalApplication, expected int64) (pgconn.CommandTag, error) {
	stored, ok := r.apps[app.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *app
	cp.RowVersion = expected + 1
	r.apps[app.ID] = &cp
	r.writes++
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeAppRepo) UpdateWithRetry(_ context.Context, id uuid.UUID, mutate func(*models.RentalApplication) error) error {
	stored, ok := r.apps[id]
	if !ok {
		return utils.ErrNoRowsUpdated
	}
	if err := mutate(stored); err != nil {
		return err
	}
	stored.RowVersion++
	stored.UpdatedAt = time.Now()
	r.writes++
	return nil
}

func (r *fakeAppRepo) CompleteAtomic(_ context.Context, id uuid.UUID, expectedVersion int64) (*models.RentalApplication, error) {
	stored, ok := r.apps[id]
	if !ok {
		return nil, utils.ErrNoRowsUpdated
	}
	if stored.RowVersion != expectedVersion {
		return nil, utils.ErrRowVersionConflict
	}
	now := time.Now()
	stored.Status = models.ApplicationStatusCompleted
	stored.CompletedAt = &now
	stored.RowVersion++
	r.writes++
	cp := *stored
	return &cp, nil
}

type fakeListingRepo struct {
	listings map[uuid.UUID]*models.Listing
}

func newFakeListingRepo(listings ...*models.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: make(map[uuid.UUID]*models.Listing)}
	for _, l := range listings {
		r.listings[l.Property.ID] = l
	}
	return r
}

func (r *fakeListingRepo) Create(_ context.Context, p *models.Property) error {
	r.listings[p.ID] = &models.Listing{Shape: models.ListingShapeLegacy, Property: p}
	return nil
}

func (r *fakeListingRepo) CreateListingEntity(_ context.Context, e *models.ListingEntity) error {
	l := r.listings[e.PropertyID]
	l.Shape = models.ListingShapeNormalized
	l.Entity = e
	return nil
}

func (r *fakeListingRepo) SetInviteConfig(_ context.Context, propertyID uuid.UUID, cfg *models.ApplicationInviteConfig) error {
	r.listings[propertyID].InviteConfig = cfg
	return nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Property, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	return l.Property, nil
}

func (r *fakeListingRepo) GetListingByID(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	return l, nil
}

func (r *fakeListingRepo) ListListings(_ context.Context, city string, page, size int) ([]*models.Listing, error) {
	var out []*models.Listing
	for _, l := range r.listings {
		if city == "" || l.Property.City == city {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) UpdateIfVersion(_ context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (r *fakeListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.listings, id)
	return nil
}

type fakeFeeIntentCreator struct {
	calls   int
	lastAmt int64
	lastCur string
}

func (f *fakeFeeIntentCreator) CreateApplicationFeeIntent(
	_ context.Context,
	app *models.RentalApplication,
	amountMinorUnits int64,
	currency string,
) (*dtos.PaymentDetailsDTO, error) {
	f.calls++
	f.lastAmt = amountMinorUnits
	f.lastCur = currency
	return &dtos.PaymentDetailsDTO{
		IntentID:     "pi_test_123",
		ClientSecret: "pi_test_123_secret",
		Amount:       amountMinorUnits,
		Currency:     currency,
	}, nil
}

/* ------------------------------------------------------------------
   Fixtures
------------------------------------------------------------------ */

func legacyListingNoFee(landlordID uuid.UUID) *models.Listing {
	return &models.Listing{
		Shape: models.ListingShapeLegacy,
		Property: &models.Property{
			ID:         uuid.New(),
			LandlordID: landlordID,
			Name:       "14 Birch Court",
			City:       "Austin",
			RentPrice:  1450,
			Currency:   "USD",
		},
	}
}

func normalizedListingWithFee(landlordID uuid.UUID, entityFee string) *models.Listing {
	prop := &models.Property{
		ID:         uuid.New(),
		LandlordID: landlordID,
		Name:       "Lamar Flats",
		City:       "Austin",
		RentPrice:  2100,
		Currency:   "USD",
	}
	return &models.Listing{
		Shape:    models.ListingShapeNormalized,
		Property: prop,
		Entity: &models.ListingEntity{
			ID:                   uuid.New(),
			PropertyID:           prop.ID,
			Name:                 "Unit 2B",
			RentPrice:            1150,
			Currency:             "USD",
			ApplicationFeeAmount: utils.Ptr(entityFee),
		},
		InviteConfig: &models.ApplicationInviteConfig{ApplicationFee: "YES"},
	}
}

func openApplication(tenantID, propertyID uuid.UUID, completed ...models.StepKey) *models.RentalApplication {
	app := &models.RentalApplication{
		ID:             uuid.New(),
		TenantID:       tenantID,
		PropertyID:     propertyID,
		Status:         models.ApplicationStatusInProgress,
		CompletedSteps: completed,
	}
	app.RowVersion = 1
	if len(completed) > 0 {
		last := completed[len(completed)-1]
		app.LastStep = &last
	}
	return app
}

func newApplicationService(appRepo *fakeAppRepo, propRepo *fakeListingRepo, payments FeeIntentCreator) *ApplicationService {
	if payments == nil {
		payments = &fakeFeeIntentCreator{}
	}
	return NewApplicationService(&config.Config{}, appRepo, propRepo, payments)
}

/* ------------------------------------------------------------------
   Tests
------------------------------------------------------------------ */

func TestSubmitPersonalKin_CreatesApplicationLazily(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	appRepo := newFakeAppRepo()
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), nil)

	dto, err := svc.SubmitPersonalKin(context.Background(), tenantID, dtos.PersonalKinRequest{
		PropertyID:  listing.Property.ID,
		FirstName:   "Tara",
		LastName:    "Nguyen",
		Email:       "tara@example.com",
		Phone:       "+15125550101",
		DateOfBirth: "1994-03-12",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusInProgress, dto.Status)
	assert.Equal(t, []models.StepKey{models.StepPersonalKin}, dto.CompletedSteps)
	require.NotNil(t, dto.LastStep)
	assert.Equal(t, models.StepPersonalKin, *dto.LastStep)
	// Position advances past the recorded step.
	assert.Equal(t, 2, dto.CurrentStepID)
	assert.Equal(t, 1, appRepo.writes)
}

func TestSubmitPersonalKin_UnknownPropertyDoesNotCreate(t *testing.T) {
	appRepo := newFakeAppRepo()
	svc := newApplicationService(appRepo, newFakeListingRepo(), nil)

	_, err := svc.SubmitPersonalKin(context.Background(), uuid.New(), dtos.PersonalKinRequest{
		PropertyID: uuid.New(),
	})
	assert.ErrorIs(t, err, utils.ErrPropertyNotFound)
	assert.Zero(t, appRepo.writes)
}

func TestSubmitStep_Advances(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	appRepo := newFakeAppRepo(app)
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), nil)

	dto, err := svc.SubmitResidentialAddress(context.Background(), tenantID, app.ID, dtos.ResidentialAddressRequest{
		Address: "900 N Lamar Blvd",
		City:    "Austin",
		State:   "TX",
		ZipCode: "78703",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, dto.CurrentStepID)
	assert.Contains(t, dto.CompletedSteps, models.StepResidentialAddress)
	assert.Equal(t, 1, appRepo.writes)
}

func TestSubmitStep_RepeatIsIdempotent(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID,
		models.StepPersonalKin, models.StepResidentialAddress)
	appRepo := newFakeAppRepo(app)
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), nil)

	dto, err := svc.SubmitResidentialAddress(context.Background(), tenantID, app.ID, dtos.ResidentialAddressRequest{
		Address: "different address this time",
		City:    "Austin",
		State:   "TX",
		ZipCode: "78703",
	})
	require.NoError(t, err)

	// No write happened, and the response still reports the advanced
	// position.
	assert.Zero(t, appRepo.writes)
	assert.Equal(t, 3, dto.CurrentStepID)
	assert.Equal(t, int64(1), dto.RowVersion)
}

func TestSubmitStep_CompletedApplicationRejected(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	app.Status = models.ApplicationStatusCompleted
	appRepo := newFakeAppRepo(app)
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), nil)

	_, err := svc.SubmitResidentialAddress(context.Background(), tenantID, app.ID, dtos.ResidentialAddressRequest{
		Address: "x", City: "x", State: "x", ZipCode: "x",
	})
	assert.ErrorIs(t, err, utils.ErrWrongStatus)
	assert.Zero(t, appRepo.writes)
}

func TestFetchOwned_Guards(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), nil)

	_, err := svc.GetByID(context.Background(), tenantID, uuid.Nil)
	assert.ErrorIs(t, err, utils.ErrMissingApplication)

	// Someone else's application reads as absent, not forbidden.
	_, err = svc.GetByID(context.Background(), uuid.New(), app.ID)
	assert.ErrorIs(t, err, utils.ErrApplicationNotFound)
}

func TestResume_NoOpenApplication(t *testing.T) {
	svc := newApplicationService(newFakeAppRepo(), newFakeListingRepo(), nil)

	dto, err := svc.Resume(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, dto)
}

func TestResume_ReturnsDerivedPosition(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID,
		models.StepPersonalKin, models.StepResidentialAddress, models.StepEmploymentDetails)
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), nil)

	dto, err := svc.Resume(context.Background(), tenantID, listing.Property.ID)
	require.NoError(t, err)
	require.NotNil(t, dto)
	assert.Equal(t, 4, dto.CurrentStepID)
}

func TestSubmitChecklist_NoFeeCompletesWithoutPayment(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID,
		models.StepPersonalKin, models.StepResidentialAddress, models.StepEmploymentDetails,
		models.StepAdditionalDetails, models.StepReferees, models.StepDocuments,
		models.StepGuarantor, models.StepDeclaration)
	appRepo := newFakeAppRepo(app)
	payments := &fakeFeeIntentCreator{}
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), payments)

	resp, err := svc.SubmitChecklist(context.Background(), tenantID, app.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusCompleted, resp.Status)
	assert.Nil(t, resp.Payment)
	assert.Zero(t, payments.calls)

	stored := appRepo.apps[app.ID]
	assert.Equal(t, models.ApplicationStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Contains(t, stored.CompletedSteps, models.StepChecklist)
}

func TestSubmitChecklist_FeeBranchGoesPendingPayment(t *testing.T) {
	tenantID := uuid.New()
	listing := normalizedListingWithFee(uuid.New(), "50.00")
	app := openApplication(tenantID, listing.Property.ID,
		models.StepPersonalKin, models.StepResidentialAddress, models.StepEmploymentDetails,
		models.StepAdditionalDetails, models.StepReferees, models.StepDocuments,
		models.StepGuarantor, models.StepDeclaration)
	appRepo := newFakeAppRepo(app)
	payments := &fakeFeeIntentCreator{}
	svc := newApplicationService(appRepo, newFakeListingRepo(listing), payments)

	resp, err := svc.SubmitChecklist(context.Background(), tenantID, app.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusPendingPayment, resp.Status)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, int64(5000), resp.Payment.Amount)
	assert.Equal(t, "USD", resp.Payment.Currency)
	assert.Equal(t, 1, payments.calls)
	assert.Equal(t, int64(5000), payments.lastAmt)

	stored := appRepo.apps[app.ID]
	assert.Equal(t, models.ApplicationStatusPendingPayment, stored.Status)
}

func TestSubmitChecklist_AlreadyCompletedRejected(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	app.Status = models.ApplicationStatusCompleted
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), nil)

	_, err := svc.SubmitChecklist(context.Background(), tenantID, app.ID)
	assert.ErrorIs(t, err, utils.ErrWrongStatus)
}

func TestCreateFeePayment_RequiresPendingPayment(t *testing.T) {
	tenantID := uuid.New()
	listing := normalizedListingWithFee(uuid.New(), "50.00")
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), nil)

	_, err := svc.CreateFeePayment(context.Background(), tenantID, app.ID)
	assert.ErrorIs(t, err, utils.ErrWrongStatus)
}

func TestCreateFeePayment_ReissuesIntent(t *testing.T) {
	tenantID := uuid.New()
	listing := normalizedListingWithFee(uuid.New(), "45.50")
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	app.Status = models.ApplicationStatusPendingPayment
	payments := &fakeFeeIntentCreator{}
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), payments)

	details, err := svc.CreateFeePayment(context.Background(), tenantID, app.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4550), details.Amount)
	assert.Equal(t, 1, payments.calls)
}

func TestCreateFeePayment_UnresolvableFee(t *testing.T) {
	tenantID := uuid.New()
	// Flag is on but no amount resolves anywhere.
	listing := legacyListingNoFee(uuid.New())
	listing.InviteConfig = &models.ApplicationInviteConfig{ApplicationFee: "YES"}
	app := openApplication(tenantID, listing.Property.ID, models.StepPersonalKin)
	app.Status = models.ApplicationStatusPendingPayment
	svc := newApplicationService(newFakeAppRepo(app), newFakeListingRepo(listing), nil)

	_, err := svc.CreateFeePayment(context.Background(), tenantID, app.ID)
	assert.ErrorIs(t, err, utils.ErrFeeUnresolvable)
}
