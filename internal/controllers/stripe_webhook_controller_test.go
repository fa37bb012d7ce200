package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/services"
)

const testWebhookSecret = "whsec_test_secret"

func newWebhookController(t *testing.T) *StripeWebhookController {
	t.Helper()
	svc := services.NewPaymentService(&config.Config{
		StripeWebhookSecret: testWebhookSecret,
	}, nil, nil)
	require.NoError(t, svc.Start(context.Background()))
	return NewStripeWebhookController(svc)
}

func mockEventPayload(t *testing.T, eventType string, data map[string]any) []byte {
	t.Helper()
	payload := map[string]any{
		"id":          "evt_test_1",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"type":        eventType,
		"data": map[string]any{
			"object": data,
		},
	}
	jsonBytes, err := json.Marshal(payload)
	require.NoError(t, err)
	return jsonBytes
}

func signedHeader(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig)
}

func TestWebhookHandler_MissingSignature(t *testing.T) {
	c := newWebhookController(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/stripe-webhook",
		bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	c.WebhookHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_BadSignature(t *testing.T) {
	c := newWebhookController(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/stripe-webhook",
		bytes.NewReader([]byte(`{"type":"payment_intent.succeeded"}`)))
	req.Header.Set("Stripe-Signature", "t=12345,v1=deadbeef")
	rec := httptest.NewRecorder()
	c.WebhookHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHandler_SignedUnhandledEventAcknowledged(t *testing.T) {
	c := newWebhookController(t)

	payload := mockEventPayload(t, "payment_intent.created", map[string]any{
		"id":     "pi_abc",
		"object": "payment_intent",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/stripe-webhook",
		bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signedHeader(payload))
	rec := httptest.NewRecorder()
	c.WebhookHandler(rec, req)

	// Unhandled lifecycle events are acknowledged so Stripe stops resending.
	assert.Equal(t, http.StatusOK, rec.Code)
}
