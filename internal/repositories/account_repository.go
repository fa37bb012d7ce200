package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type accountRepo struct {
	db DB
}

func NewAccountRepository(db DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) Create(ctx context.Context, a *models.Account) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO accounts (id, account_type, first_name, last_name, email, phone_number, created_at)
        VALUES ($1,$2,$3,$4,$5,$6, NOW())
        ON CONFLICT (id) DO NOTHING
    `, a.ID, a.AccountType, a.FirstName, a.LastName, a.Email, a.PhoneNumber)
	return err
}

func (r *accountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.db.QueryRow(ctx, `
        SELECT id, account_type, first_name, last_name, email, phone_number, created_at
        FROM accounts WHERE id=$1
    `, id).Scan(&a.ID, &a.AccountType, &a.FirstName, &a.LastName, &a.Email, &a.PhoneNumber, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
