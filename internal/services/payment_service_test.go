package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/models"
)

type fakePaymentRepo struct {
	byIntent map[string]*models.ApplicationPayment
}

func newFakePaymentRepo(payments ...*models.ApplicationPayment) *fakePaymentRepo {
	r := &fakePaymentRepo{byIntent: make(map[string]*models.ApplicationPayment)}
	for _, p := range payments {
		r.byIntent[p.IntentID] = p
	}
	return r
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.ApplicationPayment) error {
	r.byIntent[p.IntentID] = p
	return nil
}

func (r *fakePaymentRepo) GetByIntentID(_ context.Context, intentID string) (*models.ApplicationPayment, error) {
	p, ok := r.byIntent[intentID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) ListByApplicationID(_ context.Context, appID uuid.UUID) ([]*models.ApplicationPayment, error) {
	var out []*models.ApplicationPayment
	for _, p := range r.byIntent {
		if p.ApplicationID == appID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) UpdateStatusByIntentID(_ context.Context, intentID string, status models.PaymentStatusType, failureReason *string) error {
	p, ok := r.byIntent[intentID]
	if !ok {
		return nil
	}
	p.Status = status
	p.FailureReason = failureReason
	return nil
}

func pendingPaymentApp(tenantID, propertyID uuid.UUID) *models.RentalApplication {
	app := openApplication(tenantID, propertyID,
		models.StepPersonalKin, models.StepResidentialAddress, models.StepEmploymentDetails,
		models.StepAdditionalDetails, models.StepReferees, models.StepDocuments,
		models.StepGuarantor, models.StepDeclaration, models.StepChecklist)
	app.Status = models.ApplicationStatusPendingPayment
	return app
}

func TestHandlePaymentIntentEvent_SucceededCompletesApplication(t *testing.T) {
	app := pendingPaymentApp(uuid.New(), uuid.New())
	appRepo := newFakeAppRepo(app)
	payment := &models.ApplicationPayment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		IntentID:      "pi_abc",
		Amount:        5000,
		Currency:      "usd",
		Status:        models.PaymentStatusCreated,
	}
	payRepo := newFakePaymentRepo(payment)
	svc := NewPaymentService(&config.Config{}, payRepo, appRepo)

	err := svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.succeeded",
		&stripe.PaymentIntent{ID: "pi_abc"})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusSucceeded, payRepo.byIntent["pi_abc"].Status)
	stored := appRepo.apps[app.ID]
	assert.Equal(t, models.ApplicationStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
}

func TestHandlePaymentIntentEvent_SucceededIsIdempotent(t *testing.T) {
	app := pendingPaymentApp(uuid.New(), uuid.New())
	appRepo := newFakeAppRepo(app)
	payment := &models.ApplicationPayment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		IntentID:      "pi_abc",
		Status:        models.PaymentStatusCreated,
	}
	payRepo := newFakePaymentRepo(payment)
	svc := NewPaymentService(&config.Config{}, payRepo, appRepo)

	require.NoError(t, svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.succeeded",
		&stripe.PaymentIntent{ID: "pi_abc"}))
	writesAfterFirst := appRepo.writes

	// Stripe redelivers; the application is already terminal.
	require.NoError(t, svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.succeeded",
		&stripe.PaymentIntent{ID: "pi_abc"}))
	assert.Equal(t, writesAfterFirst, appRepo.writes)
}

func TestHandlePaymentIntentEvent_FailedReopensApplication(t *testing.T) {
	app := pendingPaymentApp(uuid.New(), uuid.New())
	appRepo := newFakeAppRepo(app)
	payment := &models.ApplicationPayment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		IntentID:      "pi_abc",
		Status:        models.PaymentStatusCreated,
	}
	payRepo := newFakePaymentRepo(payment)
	svc := NewPaymentService(&config.Config{}, payRepo, appRepo)

	err := svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.payment_failed",
		&stripe.PaymentIntent{
			ID:               "pi_abc",
			LastPaymentError: &stripe.Error{Msg: "Your card was declined."},
		})
	require.NoError(t, err)

	stored := payRepo.byIntent["pi_abc"]
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Equal(t, "Your card was declined.", *stored.FailureReason)

	// The tenant can run the checklist again.
	assert.Equal(t, models.ApplicationStatusInProgress, appRepo.apps[app.ID].Status)
}

func TestHandlePaymentIntentEvent_UnknownIntentIgnored(t *testing.T) {
	appRepo := newFakeAppRepo()
	payRepo := newFakePaymentRepo()
	svc := NewPaymentService(&config.Config{}, payRepo, appRepo)

	err := svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.succeeded",
		&stripe.PaymentIntent{ID: "pi_someone_elses"})
	require.NoError(t, err)
	assert.Zero(t, appRepo.writes)
}

func TestHandlePaymentIntentEvent_OtherLifecycleEventsNoOp(t *testing.T) {
	app := pendingPaymentApp(uuid.New(), uuid.New())
	appRepo := newFakeAppRepo(app)
	payment := &models.ApplicationPayment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		IntentID:      "pi_abc",
		Status:        models.PaymentStatusCreated,
	}
	payRepo := newFakePaymentRepo(payment)
	svc := NewPaymentService(&config.Config{}, payRepo, appRepo)

	err := svc.HandlePaymentIntentEvent(context.Background(), "payment_intent.requires_action",
		&stripe.PaymentIntent{ID: "pi_abc"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCreated, payRepo.byIntent["pi_abc"].Status)
	assert.Equal(t, models.ApplicationStatusPendingPayment, appRepo.apps[app.ID].Status)
}
