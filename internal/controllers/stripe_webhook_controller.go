package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type StripeWebhookController struct {
	paymentService *services.PaymentService
}

func NewStripeWebhookController(paymentService *services.PaymentService) *StripeWebhookController {
	return &StripeWebhookController{paymentService: paymentService}
}

// WebhookHandler -> POST /api/v1/payments/stripe-webhook
// Unauthenticated route; the Stripe signature is the authentication.
func (c *StripeWebhookController) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Missing Stripe-Signature header", nil)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Failed to read webhook body", nil, err)
		return
	}

	event, verifyErr := webhook.ConstructEvent(payload, sigHeader, c.paymentService.WebhookSecret())
	if verifyErr != nil {
		utils.Logger.WithError(verifyErr).Error("Stripe webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded, stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			utils.Logger.WithError(err).Errorf("Could not parse stripe.PaymentIntent for event type %s", event.Type)
			break
		}
		if err := c.paymentService.HandlePaymentIntentEvent(r.Context(), string(event.Type), &pi); err != nil {
			// 500 makes Stripe redeliver the event.
			utils.Logger.WithError(err).Errorf("Failed to handle %s for intent %s", event.Type, pi.ID)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	default:
		utils.Logger.Debugf("Ignoring Stripe event type %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
