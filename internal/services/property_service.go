package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/fees"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/utils"
)

// PropertyService serves the browsing surface: listing cards with the
// fee already resolved, plus per-tenant saved properties.
type PropertyService struct {
	propRepo  repositories.PropertyRepository
	savedRepo repositories.SavedPropertyRepository
}

func NewPropertyService(
	propRepo repositories.PropertyRepository,
	savedRepo repositories.SavedPropertyRepository,
) *PropertyService {
	return &PropertyService{
		propRepo:  propRepo,
		savedRepo: savedRepo,
	}
}

func (s *PropertyService) GetListing(ctx context.Context, tenantID, propertyID uuid.UUID) (*dtos.ListingDTO, error) {
	listing, err := s.propRepo.GetListingByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, utils.ErrPropertyNotFound
	}
	dto := s.buildCard(ctx, tenantID, listing)
	return &dto, nil
}

func (s *PropertyService) ListListings(
	ctx context.Context,
	tenantID uuid.UUID,
	city string,
	page, size int,
) ([]dtos.ListingDTO, error) {
	listings, err := s.propRepo.ListListings(ctx, city, page, size)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.ListingDTO, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.buildCard(ctx, tenantID, l))
	}
	return out, nil
}

func (s *PropertyService) SaveProperty(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if prop == nil {
		return utils.ErrPropertyNotFound
	}
	return s.savedRepo.Save(ctx, &models.SavedProperty{
		ID:         uuid.New(),
		TenantID:   tenantID,
		PropertyID: propertyID,
	})
}

func (s *PropertyService) UnsaveProperty(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	return s.savedRepo.Unsave(ctx, tenantID, propertyID)
}

func (s *PropertyService) ListSaved(ctx context.Context, tenantID uuid.UUID) ([]dtos.ListingDTO, error) {
	saved, err := s.savedRepo.ListByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.ListingDTO, 0, len(saved))
	for _, sp := range saved {
		listing, err := s.propRepo.GetListingByID(ctx, sp.PropertyID)
		if err != nil {
			return nil, err
		}
		if listing == nil {
			continue // property removed after save
		}
		dto := dtos.NewListingDTO(listing)
		dto.Saved = true
		applyFee(&dto, listing)
		out = append(out, dto)
	}
	return out, nil
}

func (s *PropertyService) buildCard(ctx context.Context, tenantID uuid.UUID, listing *models.Listing) dtos.ListingDTO {
	dto := dtos.NewListingDTO(listing)
	applyFee(&dto, listing)
	if tenantID != uuid.Nil {
		saved, err := s.savedRepo.IsSaved(ctx, tenantID, listing.Property.ID)
		if err == nil {
			dto.Saved = saved
		}
	}
	return dto
}

func applyFee(dto *dtos.ListingDTO, listing *models.Listing) {
	res := fees.Resolve(listing)
	dto.FeeRequired = res.FeeRequired
	dto.FeeAmount = res.AmountMinorUnits
	if res.AmountMinorUnits != nil {
		dto.FeeCurrency = res.Currency
	}
}
