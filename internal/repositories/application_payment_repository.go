package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/models"
)

type ApplicationPaymentRepository interface {
	Create(ctx context.Context, p *models.ApplicationPayment) error
	GetByIntentID(ctx context.Context, intentID string) (*models.ApplicationPayment, error)
	ListByApplicationID(ctx context.Context, appID uuid.UUID) ([]*models.ApplicationPayment, error)
	UpdateStatusByIntentID(ctx context.Context, intentID string, status models.PaymentStatusType, failureReason *string) error
}

type applicationPaymentRepo struct {
	db DB
}

func NewApplicationPaymentRepository(db DB) ApplicationPaymentRepository {
	return &applicationPaymentRepo{db: db}
}

func baseSelectPayment() string {
	return `
        SELECT id, application_id, intent_id, amount, currency, status,
               failure_reason, created_at, updated_at
        FROM application_payments
    `
}

func scanPayment(row pgx.Row) (*models.ApplicationPayment, error) {
	var p models.ApplicationPayment
	err := row.Scan(
		&p.ID,
		&p.ApplicationID,
		&p.IntentID,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.FailureReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *applicationPaymentRepo) Create(ctx context.Context, p *models.ApplicationPayment) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO application_payments (
            id, application_id, intent_id, amount, currency, status,
            created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6, NOW(), NOW())
    `,
		p.ID,
		p.ApplicationID,
		p.IntentID,
		p.Amount,
		p.Currency,
		p.Status,
	)
	return err
}

func (r *applicationPaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*models.ApplicationPayment, error) {
	row := r.db.QueryRow(ctx, baseSelectPayment()+" WHERE intent_id=$1", intentID)
	return scanPayment(row)
}

func (r *applicationPaymentRepo) ListByApplicationID(ctx context.Context, appID uuid.UUID) ([]*models.ApplicationPayment, error) {
	rows, err := r.db.Query(ctx, baseSelectPayment()+`
        WHERE application_id=$1
        ORDER BY created_at DESC
    `, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ApplicationPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *applicationPaymentRepo) UpdateStatusByIntentID(
	ctx context.Context,
	intentID string,
	status models.PaymentStatusType,
	failureReason *string,
) error {
	_, err := r.db.Exec(ctx, `
        UPDATE application_payments
        SET status=$1, failure_reason=$2, updated_at=NOW()
        WHERE intent_id=$3
    `, status, failureReason, intentID)
	return err
}
