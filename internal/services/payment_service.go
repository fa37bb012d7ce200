package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhookendpoint"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/constants"
	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/routes"
	"github.com/lettora/rentals-service/internal/utils"
)

const createStripeWebhookMaxRetries = 3

var webhookEvents = []string{
	"payment_intent.succeeded",
	"payment_intent.payment_failed",
}

// PaymentService owns the Stripe side of application-fee collection:
// creating PaymentIntents for resolved fee amounts and reacting to the
// webhook events that settle them.
type PaymentService struct {
	cfg     *config.Config
	payRepo repositories.ApplicationPaymentRepository
	appRepo repositories.RentalApplicationRepository

	mu            sync.Mutex
	webhookID     string
	webhookSecret string
}

func NewPaymentService(
	cfg *config.Config,
	payRepo repositories.ApplicationPaymentRepository,
	appRepo repositories.RentalApplicationRepository,
) *PaymentService {
	stripe.Key = cfg.StripeSecretKey
	return &PaymentService{
		cfg:     cfg,
		payRepo: payRepo,
		appRepo: appRepo,
	}
}

func (s *PaymentService) WebhookSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhookSecret
}

// Start resolves the webhook signing secret: the static shared secret in
// the default setup, or a per-run endpoint registered against Stripe
// when the dynamic flag is on (preview/test environments).
func (s *PaymentService) Start(ctx context.Context) error {
	if !s.cfg.LDFlag_DynamicStripeWebhookEndpoint {
		s.mu.Lock()
		s.webhookSecret = s.cfg.StripeWebhookSecret
		s.mu.Unlock()
		return nil
	}

	dest := s.cfg.AppUrl + routes.StripeWebhook
	id, secret, err := s.ensureStripeEndpoint(ctx, dest)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.webhookID = id
	s.webhookSecret = secret
	s.mu.Unlock()
	return nil
}

func (s *PaymentService) Stop(ctx context.Context) error {
	if !s.cfg.LDFlag_DynamicStripeWebhookEndpoint {
		return nil
	}
	s.mu.Lock()
	id := s.webhookID
	s.mu.Unlock()
	if id == "" {
		return nil
	}

	delParams := &stripe.WebhookEndpointParams{}
	delParams.Params.Context = ctx
	if _, err := webhookendpoint.Del(id, delParams); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to delete Stripe webhook endpoint %s", id)
	} else {
		utils.Logger.Infof("Deleted Stripe webhook endpoint %s", id)
	}
	return nil
}

// CreateApplicationFeeIntent creates a PaymentIntent for the resolved
// fee. The amount arrives in minor units from the resolver; it is never
// recomputed here and never taken from the client.
func (s *PaymentService) CreateApplicationFeeIntent(
	ctx context.Context,
	app *models.RentalApplication,
	amountMinorUnits int64,
	currency string,
) (*dtos.PaymentDetailsDTO, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinorUnits),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Description: stripe.String(fmt.Sprintf(
			"%s application fee (%s)", s.cfg.OrganizationName, app.ID)),
		Metadata: map[string]string{
			constants.StripeMetaApplicationID: app.ID.String(),
			constants.StripeMetaTenantID:      app.TenantID.String(),
		},
	}
	params.Params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		utils.Logger.WithError(err).Error("Stripe PaymentIntent creation failed")
		return nil, fmt.Errorf("%w: %v", utils.ErrExternalServiceFailure, err)
	}

	payment := &models.ApplicationPayment{
		ID:            uuid.New(),
		ApplicationID: app.ID,
		IntentID:      pi.ID,
		Amount:        amountMinorUnits,
		Currency:      strings.ToLower(currency),
		Status:        models.PaymentStatusCreated,
	}
	if err := s.payRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &dtos.PaymentDetailsDTO{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amountMinorUnits,
		Currency:     strings.ToLower(currency),
	}, nil
}

// HandlePaymentIntentEvent settles a webhook event. Succeeded completes
// the linked application; payment_failed records the failure and leaves
// the application open for another attempt. Any other lifecycle event
// (requires_action included) changes nothing.
func (s *PaymentService) HandlePaymentIntentEvent(
	ctx context.Context,
	eventType string,
	pi *stripe.PaymentIntent,
) error {
	payment, err := s.payRepo.GetByIntentID(ctx, pi.ID)
	if err != nil {
		return err
	}
	if payment == nil {
		// Not an application-fee intent (shared Stripe account).
		utils.Logger.Warnf("Webhook for unknown PaymentIntent %s ignored", pi.ID)
		return nil
	}

	switch eventType {
	case "payment_intent.succeeded":
		if err := s.payRepo.UpdateStatusByIntentID(ctx, pi.ID, models.PaymentStatusSucceeded, nil); err != nil {
			return err
		}
		return s.completeApplication(ctx, payment.ApplicationID)

	case "payment_intent.payment_failed":
		var reason *string
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = utils.StrPtr(pi.LastPaymentError.Msg)
		}
		if err := s.payRepo.UpdateStatusByIntentID(ctx, pi.ID, models.PaymentStatusFailed, reason); err != nil {
			return err
		}
		return s.reopenApplication(ctx, payment.ApplicationID)
	}

	return nil
}

func (s *PaymentService) completeApplication(ctx context.Context, appID uuid.UUID) error {
	for attempt := 0; attempt < 3; attempt++ {
		app, err := s.appRepo.GetByID(ctx, appID)
		if err != nil {
			return err
		}
		if app == nil {
			return utils.ErrApplicationNotFound
		}
		if app.Status == models.ApplicationStatusCompleted {
			return nil
		}

		_, err = s.appRepo.CompleteAtomic(ctx, appID, app.RowVersion)
		if err == nil {
			utils.Logger.Infof("Application %s completed via payment", appID)
			return nil
		}
		if errors.Is(err, utils.ErrRowVersionConflict) {
			continue
		}
		return err
	}
	return utils.ErrRowVersionConflict
}

func (s *PaymentService) reopenApplication(ctx context.Context, appID uuid.UUID) error {
	return s.appRepo.UpdateWithRetry(ctx, appID, func(app *models.RentalApplication) error {
		if app.Status == models.ApplicationStatusPendingPayment {
			app.Status = models.ApplicationStatusInProgress
		}
		return nil
	})
}

func (s *PaymentService) ensureStripeEndpoint(ctx context.Context, url string) (string, string, error) {
	if err := s.cleanupStaleEndpoints(ctx, url); err != nil {
		return "", "", err
	}

	create := &stripe.WebhookEndpointParams{
		URL:           stripe.String(url),
		EnabledEvents: stripe.StringSlice(webhookEvents),
		Metadata: map[string]string{
			"owner": fmt.Sprintf("%s-%s-%s", s.cfg.AppName, s.cfg.UniqueRunnerID, s.cfg.UniqueRunNumber),
		},
		APIVersion: stripe.String(stripe.APIVersion),
	}
	create.Params.Context = ctx

	var tries int
createAttempt:
	tries++
	ep, err := webhookendpoint.New(create)
	if err == nil {
		utils.Logger.Infof("Created Stripe webhook endpoint %s", ep.ID)
		return ep.ID, ep.Secret, nil
	}

	if limitErr(err) {
		if tries > createStripeWebhookMaxRetries {
			return "", "", fmt.Errorf("endpoint limit reached; retries exhausted: %w", err)
		}
		utils.Logger.Warn("Endpoint limit hit, deleting one endpoint and retrying")
		if rmErr := s.removeOldestStripeEndpoint(ctx, url); rmErr != nil {
			return "", "", rmErr
		}
		goto createAttempt
	}

	return "", "", err
}

func (s *PaymentService) cleanupStaleEndpoints(ctx context.Context, url string) error {
	lp := &stripe.WebhookEndpointListParams{}
	lp.Limit = stripe.Int64(100)
	lp.Context = ctx
	for it := webhookendpoint.List(lp); it.Next(); {
		ep := it.WebhookEndpoint()
		if ep.URL != url {
			continue
		}
		utils.Logger.Infof("Removing stale Stripe endpoint %s", ep.ID)
		delParams := &stripe.WebhookEndpointParams{}
		delParams.Params.Context = ctx
		if _, err := webhookendpoint.Del(ep.ID, delParams); err != nil {
			return fmt.Errorf("delete stale endpoint %s: %w", ep.ID, err)
		}
	}
	return nil
}

func (s *PaymentService) removeOldestStripeEndpoint(ctx context.Context, targetURL string) error {
	lp := &stripe.WebhookEndpointListParams{}
	lp.Limit = stripe.Int64(100)
	lp.Context = ctx

	var removable []*stripe.WebhookEndpoint
	for it := webhookendpoint.List(lp); it.Next(); {
		ep := it.WebhookEndpoint()
		if ep.URL != targetURL {
			removable = append(removable, ep)
		}
	}
	if len(removable) == 0 {
		return fmt.Errorf("no removable webhook endpoints found")
	}

	sort.Slice(removable, func(i, j int) bool {
		return removable[i].Created < removable[j].Created
	})

	for _, ep := range removable {
		_, err := webhookendpoint.Del(ep.ID, nil)
		if err == nil {
			utils.Logger.Infof("Removed oldest Stripe webhook endpoint %s to free slot", ep.ID)
			return nil
		}
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			// Another runner deleted it first; try the next oldest.
			continue
		}
		return err
	}
	return fmt.Errorf("failed to remove any webhook endpoint")
}

func limitErr(err error) bool {
	if se, ok := err.(*stripe.Error); ok && se.Type == stripe.ErrorTypeInvalidRequest {
		return strings.Contains(se.Msg, "Allowed webhook API limit exceeded") ||
			strings.Contains(se.Msg, "16 test webhook endpoints") ||
			strings.Contains(se.Msg, "16 webhook endpoints")
	}
	return false
}
