package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type RentalApplicationRepository interface {
	Create(ctx context.Context, app *models.RentalApplication) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.RentalApplication, error)
	GetOpenByTenantAndProperty(ctx context.Context, tenantID, propertyID uuid.UUID) (*models.RentalApplication, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.RentalApplication, error)

	UpdateIfVersion(ctx context.Context, app *models.RentalApplication, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.RentalApplication) error) error

	CompleteAtomic(ctx context.Context, id uuid.UUID, expectedVersion int64) (*models.RentalApplication, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type rentalApplicationRepo struct {
	*BaseVersionedRepo[*models.RentalApplication]
	db DB
}

func NewRentalApplicationRepository(db DB) RentalApplicationRepository {
	r := &rentalApplicationRepo{db: db}
	selectStmt := baseSelectApplication() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanApplication)
	return r
}

func baseSelectApplication() string {
	return `
        SELECT
            id, tenant_id, property_id, status, last_step, completed_steps,
            personal_details, residential_info, employment_info,
            additional_details, referees, documents, guarantor_information,
            declaration,
            row_version, created_at, updated_at, completed_at
        FROM rental_applications
    `
}

func scanApplication(row pgx.Row) (*models.RentalApplication, error) {
	var (
		app       models.RentalApplication
		lastStep  *string
		completed []string
		personal, residential, employment,
		additional, referees, documents, guarantor *string
		declaration []string
	)
	err := row.Scan(
		&app.ID,
		&app.TenantID,
		&app.PropertyID,
		&app.Status,
		&lastStep,
		&completed,
		&personal,
		&residential,
		&employment,
		&additional,
		&referees,
		&documents,
		&guarantor,
		&declaration,
		&app.RowVersion,
		&app.CreatedAt,
		&app.UpdatedAt,
		&app.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastStep != nil {
		k := models.StepKey(*lastStep)
		app.LastStep = &k
	}
	app.CompletedSteps = make([]models.StepKey, 0, len(completed))
	for _, s := range completed {
		app.CompletedSteps = append(app.CompletedSteps, models.StepKey(s))
	}
	app.PersonalDetails = rawFromString(personal)
	app.ResidentialInfo = rawFromString(residential)
	app.EmploymentInfo = rawFromString(employment)
	app.AdditionalDetails = rawFromString(additional)
	app.Referees = rawFromString(referees)
	app.Documents = rawFromString(documents)
	app.GuarantorInformation = rawFromString(guarantor)
	app.Declaration = declaration
	return &app, nil
}

// jsonb round-trips go through text; pgx would otherwise encode
// json.RawMessage as bytea.
func rawFromString(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}

func stringFromRaw(r json.RawMessage) *string {
	if len(r) == 0 {
		return nil
	}
	s := string(r)
	return &s
}

func stepKeysToStrings(keys []models.StepKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}

func (r *rentalApplicationRepo) Create(ctx context.Context, app *models.RentalApplication) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO rental_applications (
            id, tenant_id, property_id, status, last_step, completed_steps,
            personal_details, residential_info, employment_info,
            additional_details, referees, documents, guarantor_information,
            declaration,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, NOW(), NOW(), 1
        )
    `,
		app.ID,
		app.TenantID,
		app.PropertyID,
		app.Status,
		(*string)(app.LastStep),
		stepKeysToStrings(app.CompletedSteps),
		stringFromRaw(app.PersonalDetails),
		stringFromRaw(app.ResidentialInfo),
		stringFromRaw(app.EmploymentInfo),
		stringFromRaw(app.AdditionalDetails),
		stringFromRaw(app.Referees),
		stringFromRaw(app.Documents),
		stringFromRaw(app.GuarantorInformation),
		app.Declaration,
	)
	return err
}

func (r *rentalApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RentalApplication, error) {
	row := r.db.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1", id)
	return scanApplication(row)
}

func (r *rentalApplicationRepo) GetOpenByTenantAndProperty(
	ctx context.Context,
	tenantID, propertyID uuid.UUID,
) (*models.RentalApplication, error) {
	row := r.db.QueryRow(ctx, baseSelectApplication()+`
        WHERE tenant_id=$1 AND property_id=$2 AND status <> 'COMPLETED'
        ORDER BY created_at DESC
        LIMIT 1
    `, tenantID, propertyID)
	return scanApplication(row)
}

func (r *rentalApplicationRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.RentalApplication, error) {
	rows, err := r.db.Query(ctx, baseSelectApplication()+`
        WHERE tenant_id=$1
        ORDER BY created_at DESC
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RentalApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func (r *rentalApplicationRepo) UpdateIfVersion(
	ctx context.Context,
	app *models.RentalApplication,
	expected int64,
) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE rental_applications
        SET status=$1,
            last_step=$2,
            completed_steps=$3,
            personal_details=$4,
            residential_info=$5,
            employment_info=$6,
            additional_details=$7,
            referees=$8,
            documents=$9,
            guarantor_information=$10,
            declaration=$11,
            completed_at=$12,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$13 AND row_version=$14
    `,
		app.Status,
		(*string)(app.LastStep),
		stepKeysToStrings(app.CompletedSteps),
		stringFromRaw(app.PersonalDetails),
		stringFromRaw(app.ResidentialInfo),
		stringFromRaw(app.EmploymentInfo),
		stringFromRaw(app.AdditionalDetails),
		stringFromRaw(app.Referees),
		stringFromRaw(app.Documents),
		stringFromRaw(app.GuarantorInformation),
		app.Declaration,
		app.CompletedAt,
		app.ID,
		expected,
	)
}

func (r *rentalApplicationRepo) UpdateWithRetry(
	ctx context.Context,
	id uuid.UUID,
	mutate func(*models.RentalApplication) error,
) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

func (r *rentalApplicationRepo) CompleteAtomic(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int64,
) (*models.RentalApplication, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1 FOR UPDATE", id)
	app, err := scanApplication(row)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, pgx.ErrNoRows
	}
	if app.RowVersion != expectedVersion {
		return app, fmt.Errorf("application %s: %w", id, utils.ErrRowVersionConflict)
	}
	if app.Status == models.ApplicationStatusCompleted {
		return app, fmt.Errorf("application already completed")
	}

	_, err = tx.Exec(ctx, `
        UPDATE rental_applications
        SET status='COMPLETED',
            completed_at=$1,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1", id)
	return scanApplication(newRow)
}
