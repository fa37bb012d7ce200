package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/services"
	"github.com/lettora/rentals-service/internal/utils"
)

type PropertiesController struct {
	propService *services.PropertyService
}

func NewPropertiesController(propService *services.PropertyService) *PropertiesController {
	return &PropertiesController{propService: propService}
}

// ----------------------------------------------------------------
// GET /api/v1/properties?city=&page=&size=
// ----------------------------------------------------------------
func (c *PropertiesController) ListHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	listings, err := c.propService.ListListings(r.Context(), userID, q.Get("city"), page, size)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list properties")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list properties", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListingListEnvelope{
		Listings: listings,
		Page:     page,
		Size:     size,
	})
}

// ----------------------------------------------------------------
// GET /api/v1/properties/{id}
// ----------------------------------------------------------------
func (c *PropertiesController) GetHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	dto, err := c.propService.GetListing(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, utils.ErrPropertyNotFound) {
			utils.RespondErrorWithCode(
				w, http.StatusNotFound, utils.ErrCodeNotFound,
				"Property not found", nil, err,
			)
			return
		}
		utils.Logger.WithError(err).Error("Failed to fetch property")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to fetch property", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListingEnvelope{Listing: *dto})
}

// ----------------------------------------------------------------
// GET /api/v1/properties/saved
// ----------------------------------------------------------------
func (c *PropertiesController) ListSavedHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listings, err := c.propService.ListSaved(r.Context(), tenantID)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list saved properties")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to list saved properties", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.ListingListEnvelope{Listings: listings})
}

// ----------------------------------------------------------------
// POST /api/v1/properties/saved  (save)
// DELETE /api/v1/properties/saved/{id}  (unsave)
// Saving twice or unsaving an unsaved property are both no-ops.
// ----------------------------------------------------------------
func (c *PropertiesController) SaveHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body dtos.SavePropertyRequest
	if !decodeAndValidate(w, r, &body) {
		return
	}
	if err := c.propService.SaveProperty(r.Context(), tenantID, body.PropertyID); err != nil {
		if errors.Is(err, utils.ErrPropertyNotFound) {
			utils.RespondErrorWithCode(
				w, http.StatusNotFound, utils.ErrCodeNotFound,
				"Property not found", nil, err,
			)
			return
		}
		utils.Logger.WithError(err).Error("Failed to save property")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to save property", nil, err,
		)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *PropertiesController) UnsaveHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.propService.UnsaveProperty(r.Context(), tenantID, id); err != nil {
		utils.Logger.WithError(err).Error("Failed to unsave property")
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal,
			"Failed to unsave property", nil, err,
		)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
