package controllers

import (
	"net/http"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type PaymentsController struct {
	appService *services.ApplicationService
}

func NewPaymentsController(appService *services.ApplicationService) *PaymentsController {
	return &PaymentsController{appService: appService}
}

// ----------------------------------------------------------------
// POST /api/v1/payments
// Retry path for collecting the application fee: a fresh PaymentIntent
// for an application sitting in PENDING_PAYMENT.
// ----------------------------------------------------------------
func (c *PaymentsController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body dtos.CreatePaymentRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	details, err := c.appService.CreateFeePayment(r.Context(), tenantID, body.ApplicationID)
	if err != nil {
		respondApplicationError(w, err, "Failed to create payment")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.CreatePaymentResponse{PaymentDetails: *details})
}
