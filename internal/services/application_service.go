package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/fees"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/steps"
	"github.com/lettora/rentals-service/internal/utils"
)

// FeeIntentCreator is the slice of PaymentService the wizard needs for
// its terminal branch.
type FeeIntentCreator interface {
	CreateApplicationFeeIntent(
		ctx context.Context,
		app *models.RentalApplication,
		amountMinorUnits int64,
		currency string,
	) (*dtos.PaymentDetailsDTO, error)
}

// ApplicationService owns the wizard state. The step sequence is fixed;
// the client reports what it submitted and the server decides where the
// applicant is, what got recorded, and when the application finishes.
type ApplicationService struct {
	cfg      *config.Config
	appRepo  repositories.RentalApplicationRepository
	propRepo repositories.PropertyRepository
	payments FeeIntentCreator
}

func NewApplicationService(
	cfg *config.Config,
	appRepo repositories.RentalApplicationRepository,
	propRepo repositories.PropertyRepository,
	payments FeeIntentCreator,
) *ApplicationService {
	return &ApplicationService{
		cfg:      cfg,
		appRepo:  appRepo,
		propRepo: propRepo,
		payments: payments,
	}
}

func (s *ApplicationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*dtos.ApplicationDTO, error) {
	app, err := s.fetchOwned(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return buildApplicationDTO(app)
}

func (s *ApplicationService) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]dtos.ApplicationDTO, error) {
	apps, err := s.appRepo.ListByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.ApplicationDTO, 0, len(apps))
	for _, app := range apps {
		dto, err := buildApplicationDTO(app)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

// Resume finds the tenant's open application for a property and places
// them at the server-derived current step. No open application means the
// wizard starts fresh at step one; that is not an error.
func (s *ApplicationService) Resume(
	ctx context.Context,
	tenantID, propertyID uuid.UUID,
) (*dtos.ApplicationDTO, error) {
	app, err := s.appRepo.GetOpenByTenantAndProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}
	return buildApplicationDTO(app)
}

// SubmitPersonalKin handles the first step. With no open application for
// the property, one is created; this is the only step that creates.
func (s *ApplicationService) SubmitPersonalKin(
	ctx context.Context,
	tenantID uuid.UUID,
	req dtos.PersonalKinRequest,
) (*dtos.ApplicationDTO, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	app, err := s.appRepo.GetOpenByTenantAndProperty(ctx, tenantID, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		prop, err := s.propRepo.GetByID(ctx, req.PropertyID)
		if err != nil {
			return nil, err
		}
		if prop == nil {
			return nil, utils.ErrPropertyNotFound
		}

		lastStep := models.StepPersonalKin
		app = &models.RentalApplication{
			ID:              uuid.New(),
			TenantID:        tenantID,
			PropertyID:      req.PropertyID,
			Status:          models.ApplicationStatusInProgress,
			LastStep:        &lastStep,
			CompletedSteps:  []models.StepKey{models.StepPersonalKin},
			PersonalDetails: payload,
		}
		if err := s.appRepo.Create(ctx, app); err != nil {
			return nil, err
		}
		created, err := s.appRepo.GetByID(ctx, app.ID)
		if err != nil {
			return nil, err
		}
		return buildApplicationDTO(created)
	}

	return s.submitStep(ctx, app, models.StepPersonalKin, func(a *models.RentalApplication) {
		a.PersonalDetails = payload
	})
}

func (s *ApplicationService) SubmitResidentialAddress(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.ResidentialAddressRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepResidentialAddress, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.ResidentialInfo = raw })
}

func (s *ApplicationService) SubmitEmploymentDetails(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.EmploymentDetailsRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepEmploymentDetails, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.EmploymentInfo = raw })
}

func (s *ApplicationService) SubmitAdditionalDetails(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.AdditionalDetailsRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepAdditionalDetails, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.AdditionalDetails = raw })
}

func (s *ApplicationService) SubmitReferees(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.RefereesRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepReferees, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.Referees = raw })
}

func (s *ApplicationService) SubmitDocuments(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.DocumentsRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepDocuments, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.Documents = raw })
}

func (s *ApplicationService) SubmitGuarantor(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.GuarantorRequest,
) (*dtos.ApplicationDTO, error) {
	return s.submitJSONStep(ctx, tenantID, appID, models.StepGuarantor, req,
		func(a *models.RentalApplication, raw json.RawMessage) { a.GuarantorInformation = raw })
}

func (s *ApplicationService) SubmitDeclaration(
	ctx context.Context, tenantID, appID uuid.UUID, req dtos.DeclarationRequest,
) (*dtos.ApplicationDTO, error) {
	app, err := s.fetchOwned(ctx, tenantID, appID)
	if err != nil {
		return nil, err
	}
	return s.submitStep(ctx, app, models.StepDeclaration, func(a *models.RentalApplication) {
		a.Declaration = req.Acknowledgements
	})
}

// SubmitChecklist records the terminal step and branches: without a
// required fee the application completes outright; with one, it moves to
// PENDING_PAYMENT and a PaymentIntent for the resolved amount comes back
// for the client to confirm. Completion then waits for the webhook.
func (s *ApplicationService) SubmitChecklist(
	ctx context.Context,
	tenantID, appID uuid.UUID,
) (*dtos.CompleteResponse, error) {
	app, err := s.fetchOwned(ctx, tenantID, appID)
	if err != nil {
		return nil, err
	}
	if app.Status == models.ApplicationStatusCompleted {
		return nil, utils.ErrWrongStatus
	}

	// The checklist is an action, not a form; record it before branching.
	if !app.HasCompletedStep(models.StepChecklist) {
		err = s.appRepo.UpdateWithRetry(ctx, appID, func(a *models.RentalApplication) error {
			if !a.HasCompletedStep(models.StepChecklist) {
				a.CompletedSteps = append(a.CompletedSteps, models.StepChecklist)
			}
			last := models.StepChecklist
			a.LastStep = &last
			return nil
		})
		if err != nil {
			return nil, err
		}
		app, err = s.fetchOwned(ctx, tenantID, appID)
		if err != nil {
			return nil, err
		}
	}

	listing, err := s.propRepo.GetListingByID(ctx, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, utils.ErrPropertyNotFound
	}

	res := fees.Resolve(listing)
	if !res.FeeRequired {
		completed, err := s.appRepo.CompleteAtomic(ctx, appID, app.RowVersion)
		if err != nil {
			if errors.Is(err, utils.ErrRowVersionConflict) {
				latest, _ := s.appRepo.GetByID(ctx, appID)
				if latest != nil {
					return nil, utils.NewRowVersionConflictError(latest)
				}
			}
			return nil, err
		}
		return &dtos.CompleteResponse{
			ID:     completed.ID,
			Status: completed.Status,
		}, nil
	}

	if app.Status != models.ApplicationStatusPendingPayment {
		err = s.appRepo.UpdateWithRetry(ctx, appID, func(a *models.RentalApplication) error {
			a.Status = models.ApplicationStatusPendingPayment
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	details, err := s.payments.CreateApplicationFeeIntent(ctx, app, *res.AmountMinorUnits, res.Currency)
	if err != nil {
		return nil, err
	}
	return &dtos.CompleteResponse{
		ID:      app.ID,
		Status:  models.ApplicationStatusPendingPayment,
		Payment: details,
	}, nil
}

// CreateFeePayment issues a fresh PaymentIntent for an application
// already parked in PENDING_PAYMENT (retry after a failed or abandoned
// attempt). The amount comes from the resolver, never from the client.
func (s *ApplicationService) CreateFeePayment(
	ctx context.Context,
	tenantID, appID uuid.UUID,
) (*dtos.PaymentDetailsDTO, error) {
	app, err := s.fetchOwned(ctx, tenantID, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusPendingPayment {
		return nil, utils.ErrWrongStatus
	}

	listing, err := s.propRepo.GetListingByID(ctx, app.PropertyID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, utils.ErrPropertyNotFound
	}

	res := fees.Resolve(listing)
	if !res.FeeRequired || res.AmountMinorUnits == nil {
		return nil, utils.ErrFeeUnresolvable
	}
	return s.payments.CreateApplicationFeeIntent(ctx, app, *res.AmountMinorUnits, res.Currency)
}

/* ------------------------------------------------------------------
   Internals
------------------------------------------------------------------ */

func (s *ApplicationService) fetchOwned(ctx context.Context, tenantID, id uuid.UUID) (*models.RentalApplication, error) {
	if id == uuid.Nil {
		return nil, utils.ErrMissingApplication
	}
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil || app.TenantID != tenantID {
		return nil, utils.ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) submitJSONStep(
	ctx context.Context,
	tenantID, appID uuid.UUID,
	key models.StepKey,
	req any,
	assign func(*models.RentalApplication, json.RawMessage),
) (*dtos.ApplicationDTO, error) {
	app, err := s.fetchOwned(ctx, tenantID, appID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return s.submitStep(ctx, app, key, func(a *models.RentalApplication) {
		assign(a, payload)
	})
}

// submitStep records one step. A step already in completed_steps is an
// idempotent no-op: nothing is written and the caller still gets the
// advanced position.
func (s *ApplicationService) submitStep(
	ctx context.Context,
	app *models.RentalApplication,
	key models.StepKey,
	assign func(*models.RentalApplication),
) (*dtos.ApplicationDTO, error) {
	if app.Status == models.ApplicationStatusCompleted {
		return nil, utils.ErrWrongStatus
	}
	if _, err := steps.ByKey(key); err != nil {
		return nil, utils.ErrUnknownStepKey
	}

	if app.HasCompletedStep(key) {
		return buildApplicationDTO(app)
	}

	err := s.appRepo.UpdateWithRetry(ctx, app.ID, func(a *models.RentalApplication) error {
		assign(a)
		if !a.HasCompletedStep(key) {
			a.CompletedSteps = append(a.CompletedSteps, key)
		}
		k := key
		a.LastStep = &k
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.appRepo.GetByID(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, utils.ErrApplicationNotFound
	}
	return buildApplicationDTO(updated)
}

// buildApplicationDTO derives the current step server-side. The stored
// last_step is authoritative; a client-reported position is never used.
func buildApplicationDTO(app *models.RentalApplication) (*dtos.ApplicationDTO, error) {
	currentID, err := steps.ResolveInitialStep(app.LastStep)
	if err != nil {
		return nil, utils.ErrUnknownStepKey
	}
	dto := &dtos.ApplicationDTO{
		ID:             app.ID,
		TenantID:       app.TenantID,
		PropertyID:     app.PropertyID,
		Status:         app.Status,
		LastStep:       app.LastStep,
		CompletedSteps: app.CompletedSteps,
		CurrentStepID:  currentID,
		RowVersion:     app.RowVersion,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
		CompletedAt:    app.CompletedAt,
	}
	return dto, nil
}
