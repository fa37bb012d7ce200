package utils

import (
	"errors"
	"net/http"
)

/*
   Sentinel errors for the rentals domain. Controllers match them with
   errors.Is and map them to the error codes in response.go.
*/
var (
	ErrApplicationNotFound = errors.New("application_not_found")
	ErrInviteNotFound      = errors.New("invite_not_found")
	ErrPropertyNotFound    = errors.New("property_not_found")
	ErrMissingApplication  = errors.New("missing_application")
	ErrWrongStatus         = errors.New("wrong_status")
	ErrUnknownStepKey      = errors.New("unknown_step_key")
	ErrStepOutOfOrder      = errors.New("step_out_of_order")
	ErrPaymentRequired     = errors.New("payment_required")
	ErrFeeUnresolvable     = errors.New("fee_unresolvable")
	ErrNotInviteRecipient  = errors.New("not_invite_recipient")
	ErrNotFoundThread      = errors.New("thread_not_found")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (Stripe, Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
