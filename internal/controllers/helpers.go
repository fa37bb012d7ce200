package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lettora/rentals-service/internal/middleware"
	"github.com/lettora/rentals-service/internal/utils"
)

var validate = validator.New()

// requireUser pulls the authenticated user id out of the request
// context. A missing or malformed id writes the 401 itself and reports
// false; handlers just return.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ctxUserID := r.Context().Value(middleware.ContextKeyUserID)
	if ctxUserID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"No userID in context", nil, nil,
		)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ctxUserID.(string))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Malformed userID in token", nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

func accountType(r *http.Request) string {
	if acct, ok := r.Context().Value(middleware.ContextKeyAccountType).(string); ok {
		return acct
	}
	return ""
}

// decodeAndValidate decodes the JSON body into dst and runs the
// validator tags. Failures respond and report false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON payload", nil, err,
		)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation,
			err.Error(), nil, err,
		)
		return false
	}
	return true
}

// pathUUID parses the {name} mux var as a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid id in path", nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}
