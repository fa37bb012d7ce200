package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedProperty records a tenant "liking" a property.
type SavedProperty struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}
