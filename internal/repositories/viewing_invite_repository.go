package repositories

import (
	"context"
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

type ViewingInviteRepository interface {
	Create(ctx context.Context, inv *models.ViewingInvite) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.ViewingInvite, error)
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.ViewingInvite, error)
	ListByLandlordID(ctx context.Context, landlordID uuid.UUID) ([]*models.ViewingInvite, error)

	// ListDueForFeedback returns invites in a confirmed state whose
	// effective viewing time is before the cutoff.
	ListDueForFeedback(ctx context.Context, cutoff time.Time) ([]*models.ViewingInvite, error)

	// ListUpcomingForReminder returns confirmed invites with a viewing
	// inside [from, until) that have not yet received a reminder.
	ListUpcomingForReminder(ctx context.Context, from, until time.Time) ([]*models.ViewingInvite, error)

	MarkReminderSent(ctx context.Context, id uuid.UUID) error

	UpdateIfVersion(ctx context.Context, inv *models.ViewingInvite, expected int64) (pgconn.CommandTag, error)

	// UpdateResponseAtomic records a confirmed transition: new response,
	// appended audit label, and the optional reschedule fields, gated on
	// the expected row version.
	UpdateResponseAtomic(
		ctx context.Context,
		id uuid.UUID,
		expectedVersion int64,
		newResponse models.InviteResponseType,
		auditLabel string,
		rescheduleDate *time.Time,
		rescheduleReason *string,
	) (*models.ViewingInvite, error)
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type viewingInviteRepo struct {
	db DB
}

func NewViewingInviteRepository(db DB) ViewingInviteRepository {
	return &viewingInviteRepo{db: db}
}

func baseSelectInvite() string {
	return `
        SELECT
            id, property_id, landlord_id, tenant_id, response,
            schedule_date, reschedule_date, reschedule_reason,
            response_steps_completed, reminder_sent_at,
            row_version, created_at, updated_at
        FROM viewing_invites
    `
}

func scanInvite(row pgx.Row) (*models.ViewingInvite, error) {
	var (
		inv   models.ViewingInvite
		steps []string
	)
	err := row.Scan(
		&inv.ID,
		&inv.PropertyID,
		&inv.LandlordID,
		&inv.TenantID,
		&inv.Response,
		&inv.ScheduleDate,
		&inv.RescheduleDate,
		&inv.RescheduleReason,
		&steps,
		&inv.ReminderSentAt,
		&inv.RowVersion,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	inv.ResponseStepsCompleted = steps
	return &inv, nil
}

func (r *viewingInviteRepo) Create(ctx context.Context, inv *models.ViewingInvite) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO viewing_invites (
            id, property_id, landlord_id, tenant_id, response,
            schedule_date, reschedule_date, reschedule_reason,
            response_steps_completed,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9, NOW(), NOW(), 1
        )
    `,
		inv.ID,
		inv.PropertyID,
		inv.LandlordID,
		inv.TenantID,
		inv.Response,
		inv.ScheduleDate,
		inv.RescheduleDate,
		inv.RescheduleReason,
		inv.ResponseStepsCompleted,
	)
	return err
}

func (r *viewingInviteRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ViewingInvite, error) {
	row := r.db.QueryRow(ctx, baseSelectInvite()+" WHERE id=$1", id)
	return scanInvite(row)
}

func (r *viewingInviteRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*models.ViewingInvite, error) {
	return r.list(ctx, " WHERE tenant_id=$1 ORDER BY schedule_date DESC", tenantID)
}

func (r *viewingInviteRepo) ListByLandlordID(ctx context.Context, landlordID uuid.UUID) ([]*models.ViewingInvite, error) {
	return r.list(ctx, " WHERE landlord_id=$1 ORDER BY schedule_date DESC", landlordID)
}

func (r *viewingInviteRepo) ListDueForFeedback(ctx context.Context, cutoff time.Time) ([]*models.ViewingInvite, error) {
	return r.list(ctx, `
        WHERE response = ANY($2)
          AND COALESCE(reschedule_date, schedule_date) < $1
        ORDER BY schedule_date
    `, cutoff, []string{
		string(models.InviteResponseAccepted),
		string(models.InviteResponseScheduled),
		string(models.InviteResponseRescheduledAccepted),
	})
}

func (r *viewingInviteRepo) ListUpcomingForReminder(ctx context.Context, from, until time.Time) ([]*models.ViewingInvite, error) {
	return r.list(ctx, `
        WHERE response = ANY($3)
          AND reminder_sent_at IS NULL
          AND COALESCE(reschedule_date, schedule_date) >= $1
          AND COALESCE(reschedule_date, schedule_date) < $2
        ORDER BY schedule_date
    `, from, until, []string{
		string(models.InviteResponseAccepted),
		string(models.InviteResponseScheduled),
		string(models.InviteResponseRescheduledAccepted),
	})
}

func (r *viewingInviteRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE viewing_invites
        SET reminder_sent_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND reminder_sent_at IS NULL
    `, id)
	return err
}

func (r *viewingInviteRepo) list(ctx context.Context, where string, args ...interface{}) ([]*models.ViewingInvite, error) {
	rows, err := r.db.Query(ctx, baseSelectInvite()+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ViewingInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *viewingInviteRepo) UpdateIfVersion(
	ctx context.Context,
	inv *models.ViewingInvite,
	expected int64,
) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE viewing_invites
        SET response=$1,
            schedule_date=$2,
            reschedule_date=$3,
            reschedule_reason=$4,
            response_steps_completed=$5,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$6 AND row_version=$7
    `,
		inv.Response,
		inv.ScheduleDate,
		inv.RescheduleDate,
		inv.RescheduleReason,
		inv.ResponseStepsCompleted,
		inv.ID,
		expected,
	)
}

func (r *viewingInviteRepo) UpdateResponseAtomic(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int64,
	newResponse models.InviteResponseType,
	auditLabel string,
	rescheduleDate *time.Time,
	rescheduleReason *string,
) (*models.ViewingInvite, error) {
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

	row := tx.QueryRow(ctx, baseSelectInvite()+" WHERE id=$1 FOR UPDATE", id)
	inv, err := scanInvite(row)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, pgx.ErrNoRows
	}
	if inv.RowVersion != expectedVersion {
		return inv, fmt.Errorf("invite %s: %w", id, utils.ErrRowVersionConflict)
	}

	_, err = tx.Exec(ctx, `
        UPDATE viewing_invites
        SET response=$1,
            reschedule_date=COALESCE($2, reschedule_date),
            reschedule_reason=COALESCE($3, reschedule_reason),
            response_steps_completed=array_append(response_steps_completed, $4),
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$5
    `, newResponse, rescheduleDate, rescheduleReason, auditLabel, id)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectInvite()+" WHERE id=$1", id)
	return scanInvite(newRow)
}
