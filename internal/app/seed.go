package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/utils"
)

// Fixed IDs so e2e suites and local clients can reference seeded rows.
const (
	DefaultTenantID   = "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaa1"
	DefaultLandlordID = "bbbbbbbb-bbbb-4bbb-bbbb-bbbbbbbbbbb1"

	// SentinelPropertyID is used to check if seeding has already occurred.
	SentinelPropertyID = "dddddddd-dddd-4ddd-dddd-ddddddddddd1"

	SeedPropertyLegacyID     = SentinelPropertyID
	SeedPropertyNormalizedID = "dddddddd-dddd-4ddd-dddd-ddddddddddd2"
	SeedPropertyNoFeeID      = "dddddddd-dddd-4ddd-dddd-ddddddddddd3"
	SeedListingEntityID      = "eeeeeeee-eeee-4eee-eeee-eeeeeeeeeee1"
	SeedListingEntityNoFeeID = "eeeeeeee-eeee-4eee-eeee-eeeeeeeeeee2"
)

// SeedAllTestData seeds the rentals service with sample accounts and
// listings covering both catalog shapes. Idempotent: skipped entirely
// when the sentinel property is already present.
func SeedAllTestData(
	ctx context.Context,
	accountRepo repositories.AccountRepository,
	propRepo repositories.PropertyRepository,
) error {
	sentinelID := uuid.MustParse(SentinelPropertyID)

	if existing, err := propRepo.GetByID(ctx, sentinelID); err != nil {
		return fmt.Errorf("failed to check for sentinel property: %w", err)
	} else if existing != nil {
		utils.Logger.Info("rentals-service: Seed data already present; skipping seeding.")
		return nil
	}

	if err := seedDefaultAccounts(ctx, accountRepo); err != nil {
		return err
	}

	landlordID := uuid.MustParse(DefaultLandlordID)

	// Legacy-shape listing: everything on the property row, fee on the
	// legacy column.
	legacy := &models.Property{
		ID:                   sentinelID,
		LandlordID:           landlordID,
		Name:                 "14 Birch Court",
		Address:              "14 Birch Court",
		City:                 "Austin",
		State:                "TX",
		ZipCode:              "78701",
		Bedrooms:             2,
		Bathrooms:            1,
		RentPrice:            1450,
		Currency:             "USD",
		ApplicationFeeAmount: utils.Ptr("35"),
	}
	if err := propRepo.Create(ctx, legacy); err != nil {
		return fmt.Errorf("failed to create seed legacy property: %w", err)
	}

	// Normalized listing with an invite config requiring a fee.
	normalized := &models.Property{
		ID:         uuid.MustParse(SeedPropertyNormalizedID),
		LandlordID: landlordID,
		Name:       "Lamar Flats",
		Address:    "900 N Lamar Blvd",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78703",
		Bedrooms:   3,
		Bathrooms:  2,
		RentPrice:  2100,
		Currency:   "USD",
	}
	if err := propRepo.Create(ctx, normalized); err != nil {
		return fmt.Errorf("failed to create seed normalized property: %w", err)
	}
	entity := &models.ListingEntity{
		ID:                   uuid.MustParse(SeedListingEntityID),
		PropertyID:           normalized.ID,
		Name:                 "Lamar Flats Unit 2B",
		RentPrice:            1150,
		Currency:             "USD",
		ApplicationFeeAmount: utils.Ptr("50.00"),
	}
	if err := propRepo.CreateListingEntity(ctx, entity); err != nil {
		return fmt.Errorf("failed to create seed listing entity: %w", err)
	}
	if err := propRepo.SetInviteConfig(ctx, normalized.ID, &models.ApplicationInviteConfig{
		ApplicationFee: "YES",
		FeeAmount:      utils.Ptr("45.00"),
	}); err != nil {
		return fmt.Errorf("failed to set seed invite config: %w", err)
	}

	// Normalized listing with the fee flag off: applications complete
	// without a payment.
	noFee := &models.Property{
		ID:         uuid.MustParse(SeedPropertyNoFeeID),
		LandlordID: landlordID,
		Name:       "Eastside Duplex",
		Address:    "2207 E 6th St",
		City:       "Austin",
		State:      "TX",
		ZipCode:    "78702",
		Bedrooms:   2,
		Bathrooms:  2,
		RentPrice:  1800,
		Currency:   "USD",
	}
	if err := propRepo.Create(ctx, noFee); err != nil {
		return fmt.Errorf("failed to create seed no-fee property: %w", err)
	}
	noFeeEntity := &models.ListingEntity{
		ID:         uuid.MustParse(SeedListingEntityNoFeeID),
		PropertyID: noFee.ID,
		Name:       "Eastside Duplex Unit A",
		RentPrice:  1800,
		Currency:   "USD",
	}
	if err := propRepo.CreateListingEntity(ctx, noFeeEntity); err != nil {
		return fmt.Errorf("failed to create seed no-fee listing entity: %w", err)
	}
	if err := propRepo.SetInviteConfig(ctx, noFee.ID, &models.ApplicationInviteConfig{
		ApplicationFee: "NO",
	}); err != nil {
		return fmt.Errorf("failed to set seed no-fee invite config: %w", err)
	}

	utils.Logger.Info("rentals-service: Seeding completed successfully.")
	return nil
}

func seedDefaultAccounts(ctx context.Context, accountRepo repositories.AccountRepository) error {
	accounts := []*models.Account{
		{
			ID:          uuid.MustParse(DefaultTenantID),
			AccountType: models.AccountTypeTenant,
			FirstName:   "Tara",
			LastName:    "Nguyen",
			Email:       "tara.tenant@lettora.io",
			PhoneNumber: "+15125550101",
		},
		{
			ID:          uuid.MustParse(DefaultLandlordID),
			AccountType: models.AccountTypeLandlord,
			FirstName:   "Leo",
			LastName:    "Barnes",
			Email:       "leo.landlord@lettora.io",
			PhoneNumber: "+15125550102",
		},
	}
	for _, a := range accounts {
		if err := accountRepo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", a.ID, err)
		}
	}
	return nil
}
