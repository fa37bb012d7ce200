package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/utils"
)

type savedKey struct {
	tenantID   uuid.UUID
	propertyID uuid.UUID
}

type fakeSavedRepo struct {
	saved map[savedKey]*models.SavedProperty
}

func newFakeSavedRepo() *fakeSavedRepo {
	return &fakeSavedRepo{saved: make(map[savedKey]*models.SavedProperty)}
}

func (r *fakeSavedRepo) Save(_ context.Context, s *models.SavedProperty) error {
	r.saved[savedKey{s.TenantID, s.PropertyID}] = s
	return nil
}

func (r *fakeSavedRepo) Unsave(_ context.Context, tenantID, propertyID uuid.UUID) error {
	delete(r.saved, savedKey{tenantID, propertyID})
	return nil
}

func (r *fakeSavedRepo) IsSaved(_ context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	_, ok := r.saved[savedKey{tenantID, propertyID}]
	return ok, nil
}

func (r *fakeSavedRepo) ListByTenantID(_ context.Context, tenantID uuid.UUID) ([]*models.SavedProperty, error) {
	var out []*models.SavedProperty
	for k, v := range r.saved {
		if k.tenantID == tenantID {
			out = append(out, v)
		}
	}
	return out, nil
}

func TestGetListing_ResolvesFeeOnCard(t *testing.T) {
	listing := normalizedListingWithFee(uuid.New(), "50.00")
	svc := NewPropertyService(newFakeListingRepo(listing), newFakeSavedRepo())

	dto, err := svc.GetListing(context.Background(), uuid.New(), listing.Property.ID)
	require.NoError(t, err)

	assert.True(t, dto.FeeRequired)
	require.NotNil(t, dto.FeeAmount)
	assert.Equal(t, int64(5000), *dto.FeeAmount)
	assert.Equal(t, "USD", dto.FeeCurrency)
	// Normalized cards surface the entity name and price.
	assert.Equal(t, listing.Entity.Name, dto.Name)
	assert.Equal(t, listing.Entity.RentPrice, dto.RentPrice)
}

func TestGetListing_LegacyCardNoFee(t *testing.T) {
	listing := legacyListingNoFee(uuid.New())
	svc := NewPropertyService(newFakeListingRepo(listing), newFakeSavedRepo())

	dto, err := svc.GetListing(context.Background(), uuid.New(), listing.Property.ID)
	require.NoError(t, err)

	assert.False(t, dto.FeeRequired)
	assert.Nil(t, dto.FeeAmount)
	assert.Equal(t, listing.Property.Name, dto.Name)
}

func TestGetListing_Unknown(t *testing.T) {
	svc := NewPropertyService(newFakeListingRepo(), newFakeSavedRepo())

	_, err := svc.GetListing(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, utils.ErrPropertyNotFound)
}

func TestSaveAndListSaved(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	svc := NewPropertyService(newFakeListingRepo(listing), newFakeSavedRepo())

	require.NoError(t, svc.SaveProperty(context.Background(), tenantID, listing.Property.ID))

	saved, err := svc.ListSaved(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].Saved)
	assert.Equal(t, listing.Property.ID, saved[0].PropertyID)

	dto, err := svc.GetListing(context.Background(), tenantID, listing.Property.ID)
	require.NoError(t, err)
	assert.True(t, dto.Saved)

	require.NoError(t, svc.UnsaveProperty(context.Background(), tenantID, listing.Property.ID))
	saved, err = svc.ListSaved(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSaveProperty_UnknownProperty(t *testing.T) {
	svc := NewPropertyService(newFakeListingRepo(), newFakeSavedRepo())

	err := svc.SaveProperty(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, utils.ErrPropertyNotFound)
}

func TestListSaved_SkipsRemovedProperties(t *testing.T) {
	tenantID := uuid.New()
	listing := legacyListingNoFee(uuid.New())
	propRepo := newFakeListingRepo(listing)
	svc := NewPropertyService(propRepo, newFakeSavedRepo())

	require.NoError(t, svc.SaveProperty(context.Background(), tenantID, listing.Property.ID))
	require.NoError(t, propRepo.Delete(context.Background(), listing.Property.ID))

	saved, err := svc.ListSaved(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Empty(t, saved)
}
