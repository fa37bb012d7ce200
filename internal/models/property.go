package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingShape discriminates the two record shapes the catalog has
// accumulated: NORMALIZED listings nest a separate listing entity
// (room/unit-specific) alongside the parent property; LEGACY listings
// carry everything on the property row itself.
type ListingShape string

const (
	ListingShapeNormalized ListingShape = "NORMALIZED"
	ListingShapeLegacy     ListingShape = "LEGACY"
)

type Property struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	LandlordID uuid.UUID `json:"landlord_id"`

	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`

	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	RentPrice float64 `json:"rent_price"`
	Currency  string  `json:"currency"`

	// Legacy fee field, lowest resolution priority. Kept as the raw
	// string the catalog stores; parsing happens in the fee resolver.
	ApplicationFeeAmount *string `json:"application_fee_amount,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Property) GetID() string {
	return p.ID.String()
}

// ListingEntity is the room/unit-specific record of a normalized listing.
type ListingEntity struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`

	Name      string  `json:"name"`
	RentPrice float64 `json:"rent_price"`
	Currency  string  `json:"currency"`

	ApplicationFeeAmount *string `json:"application_fee_amount,omitempty"`
}

// ApplicationInviteConfig is the landlord's per-listing application
// configuration. ApplicationFee is the literal "YES"/"NO" flag the
// catalog stores; it can disagree with the resolvable amount.
type ApplicationInviteConfig struct {
	ApplicationFee string  `json:"application_fee"`
	FeeAmount      *string `json:"fee_amount,omitempty"`
}

// Listing is the tagged union handed out by the repository boundary.
// The shape is resolved exactly once, on fetch; callers switch on Shape
// instead of duck-typing the record.
type Listing struct {
	Shape        ListingShape             `json:"shape"`
	Property     *Property                `json:"property"`
	Entity       *ListingEntity           `json:"listing_entity,omitempty"`
	InviteConfig *ApplicationInviteConfig `json:"application_invites,omitempty"`
}

// DisplayName prefers the entity name for normalized listings.
func (l *Listing) DisplayName() string {
	if l.Shape == ListingShapeNormalized && l.Entity != nil {
		return l.Entity.Name
	}
	return l.Property.Name
}

// Currency prefers the entity currency for normalized listings.
func (l *Listing) ListingCurrency() string {
	if l.Shape == ListingShapeNormalized && l.Entity != nil && l.Entity.Currency != "" {
		return l.Entity.Currency
	}
	return l.Property.Currency
}
