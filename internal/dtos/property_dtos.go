package dtos

import (
	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/models"
)

type ListListingsRequest struct {
	City    string `json:"city,omitempty"`
	MinBeds int    `json:"min_beds,omitempty" validate:"gte=0"`
	MaxRent int    `json:"max_rent,omitempty" validate:"gte=0"`
	Page    int    `json:"page,omitempty" validate:"gte=0"`
	Size    int    `json:"size,omitempty" validate:"gte=0,lte=100"`
}

// ListingDTO flattens the listing union for clients: one shape-agnostic
// card regardless of how the catalog stores the record.
type ListingDTO struct {
	PropertyID  uuid.UUID  `json:"property_id"`
	EntityID    *uuid.UUID `json:"listing_entity_id,omitempty"`
	LandlordID  uuid.UUID  `json:"landlord_id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	ZipCode     string     `json:"zip_code"`
	Bedrooms    int        `json:"bedrooms"`
	Bathrooms   int        `json:"bathrooms"`
	RentPrice   float64    `json:"rent_price"`
	Currency    string     `json:"currency"`
	FeeRequired bool       `json:"application_fee_required"`
	FeeAmount   *int64     `json:"application_fee_amount,omitempty"`
	FeeCurrency string     `json:"application_fee_currency,omitempty"`
	Saved       bool       `json:"saved"`
}

// NewListingDTO builds the flattened card from a resolved listing union.
func NewListingDTO(l *models.Listing) ListingDTO {
	dto := ListingDTO{
		PropertyID: l.Property.ID,
		LandlordID: l.Property.LandlordID,
		Name:       l.DisplayName(),
		Address:    l.Property.Address,
		City:       l.Property.City,
		State:      l.Property.State,
		ZipCode:    l.Property.ZipCode,
		Bedrooms:   l.Property.Bedrooms,
		Bathrooms:  l.Property.Bathrooms,
		RentPrice:  l.Property.RentPrice,
		Currency:   l.ListingCurrency(),
	}
	if l.Shape == models.ListingShapeNormalized && l.Entity != nil {
		dto.EntityID = &l.Entity.ID
		dto.RentPrice = l.Entity.RentPrice
	}
	return dto
}

type ListingEnvelope struct {
	Listing ListingDTO `json:"listing"`
}

type ListingListEnvelope struct {
	Listings []ListingDTO `json:"listings"`
	Page     int          `json:"page"`
	Size     int          `json:"size"`
}

type SavePropertyRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
}
