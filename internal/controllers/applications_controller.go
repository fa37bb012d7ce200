package controllers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type ApplicationsController struct {
	appService *services.ApplicationService
}

func NewApplicationsController(appService *services.ApplicationService) *ApplicationsController {
	return &ApplicationsController{appService: appService}
}

// ----------------------------------------------------------------
// GET /api/v1/applications
// ----------------------------------------------------------------
func (c *ApplicationsController) ListHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	apps, err := c.appService.ListByTenant(r.Context(), tenantID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list applications")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list applications", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, apps)
}

// ----------------------------------------------------------------
// GET /api/v1/applications/{id}
// ----------------------------------------------------------------
func (c *ApplicationsController) GetHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	dto, err := c.appService.GetByID(r.Context(), tenantID, id)
	if err != nil {
		respondApplicationError(w, err, "Failed to fetch application")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ApplicationEnvelope{Application: *dto})
}

// ----------------------------------------------------------------
// GET /api/v1/applications/resume?property_id=...
// The server decides where the applicant resumes; there is no
// client-supplied step.
// ----------------------------------------------------------------
func (c *ApplicationsController) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	propertyID, err := uuid.Parse(r.URL.Query().Get("property_id"))
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Missing or invalid property_id", nil, err,
		)
		return
	}

	dto, svcErr := c.appService.Resume(r.Context(), tenantID, propertyID)
	if svcErr != nil {
		respondApplicationError(w, svcErr, "Failed to resume application")
		return
	}
	if dto == nil {
		// No open application: the wizard starts fresh at step one.
		utils.RespondWithJSON(w, http.StatusOK, map[string]any{
			"application":     nil,
			"current_step_id": 1,
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ApplicationEnvelope{Application: *dto})
}

// ----------------------------------------------------------------
// POST /api/v1/applications/steps/personal-kin
// The only step that may create the application.
// ----------------------------------------------------------------
func (c *ApplicationsController) PersonalKinHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body dtos.PersonalKinRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	dto, err := c.appService.SubmitPersonalKin(r.Context(), tenantID, body)
	if err != nil {
		respondApplicationError(w, err, "Failed to submit step")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ApplicationEnvelope{Application: *dto})
}

func (c *ApplicationsController) ResidentialAddressHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.ResidentialAddressRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitResidentialAddress(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) EmploymentDetailsHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.EmploymentDetailsRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitEmploymentDetails(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) AdditionalDetailsHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.AdditionalDetailsRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitAdditionalDetails(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) RefereesHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.RefereesRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitReferees(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.DocumentsRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitDocuments(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) GuarantorHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.GuarantorRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitGuarantor(r.Context(), tenantID, appID, *body)
	})
}

func (c *ApplicationsController) DeclarationHandler(w http.ResponseWriter, r *http.Request) {
	submitStepHandler(w, r, func(tenantID, appID uuid.UUID, body *dtos.DeclarationRequest) (*dtos.ApplicationDTO, error) {
		return c.appService.SubmitDeclaration(r.Context(), tenantID, appID, *body)
	})
}

// ----------------------------------------------------------------
// POST /api/v1/applications/{id}/steps/checklist
// Terminal step: records the checklist, then completes the application
// or returns payment details for the resolved fee.
// ----------------------------------------------------------------
func (c *ApplicationsController) ChecklistHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	appID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	resp, err := c.appService.SubmitChecklist(r.Context(), tenantID, appID)
	if err != nil {
		respondApplicationError(w, err, "Failed to complete application")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// submitStepHandler is the shared shape of every mid-wizard step
// endpoint: auth, path id, body validation, service call.
func submitStepHandler[T any](
	w http.ResponseWriter,
	r *http.Request,
	call func(tenantID, appID uuid.UUID, body *T) (*dtos.ApplicationDTO, error),
) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	appID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body T
	if !decodeAndValidate(w, r, &body) {
		return
	}
	dto, err := call(tenantID, appID, &body)
	if err != nil {
		respondApplicationError(w, err, "Failed to submit step")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ApplicationEnvelope{Application: *dto})
}

func respondApplicationError(w http.ResponseWriter, err error, publicMsg string) {
	switch e := err.(type) {
	case *utils.RowVersionConflictError:
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeRowVersionConflict,
			"Another update occurred, please refresh", e.Current, err,
		)
		return
	case *utils.AppError:
		utils.HandleAppError(w, e)
		return
	}

	switch {
	case errors.Is(err, utils.ErrApplicationNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Application not found", nil, err,
		)
	case errors.Is(err, utils.ErrMissingApplication):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeMissingApplication,
			"No application id for a non-initial step", nil, err,
		)
	case errors.Is(err, utils.ErrPropertyNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Property not found", nil, err,
		)
	case errors.Is(err, utils.ErrWrongStatus):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeWrongStatus,
			publicMsg, nil, err,
		)
	case errors.Is(err, utils.ErrUnknownStepKey):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeStepNotSubmittable,
			"Unknown step", nil, err,
		)
	case errors.Is(err, utils.ErrFeeUnresolvable):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeFeeUnresolvable,
			"No resolvable application fee for this listing", nil, err,
		)
	case errors.Is(err, utils.ErrExternalServiceFailure):
		utils.RespondErrorWithCode(
			w, http.StatusBadGateway, utils.ErrCodeExternalServiceFailure,
			"Payment provider is unavailable, please retry", nil, err,
		)
	case errors.Is(err, utils.ErrNoRowsUpdated):
		utils.RespondErrorWithCode(
			w, http.StatusConflict, utils.ErrCodeRowVersionConflict,
			"No rows updated, please refresh", nil, err,
		)
	default:
		utils.Logger.WithError(err).Error(publicMsg)
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			publicMsg, nil, err,
		)
	}
}
