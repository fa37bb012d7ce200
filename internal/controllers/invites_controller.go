package controllers

import (
	"errors"
	"net/http"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/invites"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type InvitesController struct {
	inviteService *services.InviteService
}

func NewInvitesController(inviteService *services.InviteService) *InvitesController {
	return &InvitesController{inviteService: inviteService}
}

// ----------------------------------------------------------------
// POST /api/v1/invites
// Landlord-only: invites are issued against a property they own.
// ----------------------------------------------------------------
func (c *InvitesController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	landlordID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if accountType(r) != utils.LandlordAccountType {
		utils.RespondErrorWithCode(
			w, http.StatusForbidden, utils.ErrCodeUnauthorized,
			"Only landlords create viewing invites", nil, nil,
		)
		return
	}
	var body dtos.CreateInviteRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	dto, err := c.inviteService.Create(r.Context(), landlordID, body)
	if err != nil {
		c.respondInviteError(w, err, "Failed to create invite")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.InviteEnvelope{Invite: *dto})
}

// ----------------------------------------------------------------
// GET /api/v1/invites (tenant) / GET /api/v1/landlord/invites
// ----------------------------------------------------------------
func (c *InvitesController) ListTenantHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := c.inviteService.ListForTenant(r.Context(), tenantID)
	if err != nil {
		c.respondInviteError(w, err, "Failed to list invites")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.InviteListEnvelope{Invites: list})
}

func (c *InvitesController) ListLandlordHandler(w http.ResponseWriter, r *http.Request) {
	landlordID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := c.inviteService.ListForLandlord(r.Context(), landlordID)
	if err != nil {
		c.respondInviteError(w, err, "Failed to list invites")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.InviteListEnvelope{Invites: list})
}

// ----------------------------------------------------------------
// GET /api/v1/invites/{id}
// ----------------------------------------------------------------
func (c *InvitesController) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	dto, err := c.inviteService.GetByID(r.Context(), userID, id)
	if err != nil {
		c.respondInviteError(w, err, "Failed to fetch invite")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.InviteEnvelope{Invite: *dto})
}

// ----------------------------------------------------------------
// POST /api/v1/invites/{id}/respond
// One endpoint for every lifecycle action; the actor comes from the
// token, the legality from the transition table.
// ----------------------------------------------------------------
func (c *InvitesController) RespondHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body dtos.InviteActionRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}

	actor := invites.ActorTenant
	if accountType(r) == utils.LandlordAccountType {
		actor = invites.ActorLandlord
	}

	dto, err := c.inviteService.Respond(r.Context(), userID, actor, id, body)
	if err != nil {
		c.respondInviteError(w, err, "Failed to apply invite action")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.InviteEnvelope{Invite: *dto})
}

func (c *InvitesController) respondInviteError(w http.ResponseWriter, err error, publicMsg string) {
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
	case errors.Is(err, utils.ErrInviteNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Invite not found", nil, err,
		)
	case errors.Is(err, utils.ErrPropertyNotFound):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Property not found", nil, err,
		)
	case errors.Is(err, utils.ErrNotInviteRecipient):
		utils.RespondErrorWithCode(
			w, http.StatusForbidden, utils.ErrCodeUnauthorized,
			"Not a party to this invite", nil, err,
		)
	case errors.Is(err, invites.ErrInvalidTransition):
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeWrongStatus,
			"Action not allowed from the current state", nil, err,
		)
	case errors.Is(err, invites.ErrUnknownResponse):
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeUnknownInviteResponse,
			"Invite is in an unrecognized state", nil, err,
		)
	default:
		utils.Logger.WithError(err).Error(publicMsg)
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			publicMsg, nil, err,
		)
	}
}
