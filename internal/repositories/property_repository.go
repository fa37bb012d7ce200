package repositories

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/constants"
	"github.com/lettora/rentals-service/internal/models"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	CreateListingEntity(ctx context.Context, e *models.ListingEntity) error
	SetInviteConfig(ctx context.Context, propertyID uuid.UUID, cfg *models.ApplicationInviteConfig) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)

	// GetListingByID resolves the record shape exactly once: a property
	// with a listing entity comes back NORMALIZED, otherwise LEGACY.
	GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)

	ListListings(ctx context.Context, city string, page, size int) ([]*models.Listing, error)

	UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type propertyRepo struct {
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	return &propertyRepo{db: db}
}

func baseSelectListing() string {
	return `
        SELECT
            p.id, p.landlord_id, p.property_name, p.address, p.city, p.state, p.zip_code,
            p.bedrooms, p.bathrooms, p.rent_price, p.currency, p.application_fee_amount,
            p.application_fee_flag, p.invite_fee_amount,
            p.row_version, p.created_at, p.updated_at,
            e.id, e.entity_name, e.rent_price, e.currency, e.application_fee_amount
        FROM properties p
        LEFT JOIN listing_entities e ON e.property_id = p.id
    `
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var (
		p models.Property

		feeFlag   *string
		inviteFee *string

		entityID       *uuid.UUID
		entityName     *string
		entityPrice    *float64
		entityCurrency *string
		entityFee      *string
	)
	err := row.Scan(
		&p.ID,
		&p.LandlordID,
		&p.Name,
		&p.Address,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.RentPrice,
		&p.Currency,
		&p.ApplicationFeeAmount,
		&feeFlag,
		&inviteFee,
		&p.RowVersion,
		&p.CreatedAt,
		&p.UpdatedAt,
		&entityID,
		&entityName,
		&entityPrice,
		&entityCurrency,
		&entityFee,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		Shape:    models.ListingShapeLegacy,
		Property: &p,
	}
	if entityID != nil {
		listing.Shape = models.ListingShapeNormalized
		listing.Entity = &models.ListingEntity{
			ID:         *entityID,
			PropertyID: p.ID,
		}
		if entityName != nil {
			listing.Entity.Name = *entityName
		}
		if entityPrice != nil {
			listing.Entity.RentPrice = *entityPrice
		}
		if entityCurrency != nil {
			listing.Entity.Currency = *entityCurrency
		}
		listing.Entity.ApplicationFeeAmount = entityFee
	}
	if feeFlag != nil {
		listing.InviteConfig = &models.ApplicationInviteConfig{
			ApplicationFee: *feeFlag,
			FeeAmount:      inviteFee,
		}
	}
	return listing, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, landlord_id, property_name, address, city, state, zip_code,
            bedrooms, bathrooms, rent_price, currency, application_fee_amount,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, NOW(), NOW(), 1)
    `,
		p.ID,
		p.LandlordID,
		p.Name,
		p.Address,
		p.City,
		p.State,
		p.ZipCode,
		p.Bedrooms,
		p.Bathrooms,
		p.RentPrice,
		p.Currency,
		p.ApplicationFeeAmount,
	)
	return err
}

func (r *propertyRepo) CreateListingEntity(ctx context.Context, e *models.ListingEntity) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO listing_entities (
            id, property_id, entity_name, rent_price, currency, application_fee_amount
        ) VALUES ($1,$2,$3,$4,$5,$6)
    `,
		e.ID,
		e.PropertyID,
		e.Name,
		e.RentPrice,
		e.Currency,
		e.ApplicationFeeAmount,
	)
	return err
}

func (r *propertyRepo) SetInviteConfig(ctx context.Context, propertyID uuid.UUID, cfg *models.ApplicationInviteConfig) error {
	_, err := r.db.Exec(ctx, `
        UPDATE properties
        SET application_fee_flag=$1,
            invite_fee_amount=$2,
            updated_at=NOW()
        WHERE id=$3
    `, cfg.ApplicationFee, cfg.FeeAmount, propertyID)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	listing, err := r.GetListingByID(ctx, id)
	if err != nil || listing == nil {
		return nil, err
	}
	return listing.Property, nil
}

func (r *propertyRepo) GetListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	row := r.db.QueryRow(ctx, baseSelectListing()+" WHERE p.id=$1", id)
	return scanListing(row)
}

func (r *propertyRepo) ListListings(ctx context.Context, city string, page, size int) ([]*models.Listing, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > constants.MaxPageSize {
		size = constants.DefaultPageSize
	}

	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)
	qb.WriteString(baseSelectListing())
	if city != "" {
		qb.WriteString(" WHERE LOWER(p.city) = LOWER($")
		qb.WriteString(strconv.Itoa(idx))
		qb.WriteString(")")
		args = append(args, city)
		idx++
	}
	qb.WriteString(" ORDER BY p.created_at DESC LIMIT $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, size)
	idx++
	qb.WriteString(" OFFSET $")
	qb.WriteString(strconv.Itoa(idx))
	args = append(args, (page-1)*size)

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *propertyRepo) UpdateIfVersion(
	ctx context.Context,
	p *models.Property,
	expected int64,
) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE properties
        SET property_name=$1, address=$2, city=$3, state=$4, zip_code=$5,
            bedrooms=$6, bathrooms=$7, rent_price=$8, currency=$9,
            application_fee_amount=$10,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$11 AND row_version=$12
    `,
		p.Name,
		p.Address,
		p.City,
		p.State,
		p.ZipCode,
		p.Bedrooms,
		p.Bathrooms,
		p.RentPrice,
		p.Currency,
		p.ApplicationFeeAmount,
		p.ID,
		expected,
	)
}

func (r *propertyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id=$1`, id)
	return err
}
