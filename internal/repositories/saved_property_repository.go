package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/models"
)

type SavedPropertyRepository interface {
	Save(ctx context.Context, s *models.SavedProperty) error
	Unsave(ctx context.Context, tenantID, propertyID uuid.UUID) error
	IsSaved(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.SavedProperty, error)
}

type savedPropertyRepo struct {
	db DB
}

func NewSavedPropertyRepository(db DB) SavedPropertyRepository {
	return &savedPropertyRepo{db: db}
}

func (r *savedPropertyRepo) Save(ctx context.Context, s *models.SavedProperty) error {
	// Saving twice is a no-op.
	_, err := r.db.Exec(ctx, `
        INSERT INTO saved_properties (id, tenant_id, property_id, created_at)
        VALUES ($1,$2,$3, NOW())
        ON CONFLICT (tenant_id, property_id) DO NOTHING
    `, s.ID, s.TenantID, s.PropertyID)
	return err
}

func (r *savedPropertyRepo) Unsave(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        DELETE FROM saved_properties WHERE tenant_id=$1 AND property_id=$2
    `, tenantID, propertyID)
	return err
}

func (r *savedPropertyRepo) IsSaved(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
        SELECT id FROM saved_properties WHERE tenant_id=$1 AND property_id=$2
    `, tenantID, propertyID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *savedPropertyRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.SavedProperty, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, tenant_id, property_id, created_at
        FROM saved_properties
        WHERE tenant_id=$1
        ORDER BY created_at DESC
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SavedProperty
	for rows.Next() {
		var s models.SavedProperty
		if err := rows.Scan(&s.ID, &s.TenantID, &s.PropertyID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
