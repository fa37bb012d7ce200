package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/lettora/rentals-service/internal/models"
)

type MessageRepository interface {
	GetOrCreateThread(ctx context.Context, tenantID, landlordID, propertyID uuid.UUID) (*models.MessageThread, error)
	ListThreadsByUserID(ctx context.Context, userID uuid.UUID) ([]*models.MessageThread, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessagesByThreadID(ctx context.Context, threadID uuid.UUID) ([]*models.Message, error)
	GetThreadByID(ctx context.Context, id uuid.UUID) (*models.MessageThread, error)
}

type messageRepo struct {
	db DB
}

func NewMessageRepository(db DB) MessageRepository {
	return &messageRepo{db: db}
}

func scanThread(row pgx.Row) (*models.MessageThread, error) {
	var t models.MessageThread
	err := row.Scan(&t.ID, &t.TenantID, &t.LandlordID, &t.PropertyID, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *messageRepo) GetOrCreateThread(ctx context.Context, tenantID, landlordID, propertyID uuid.UUID) (*models.MessageThread, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, tenant_id, landlord_id, property_id, created_at
        FROM message_threads
        WHERE tenant_id=$1 AND landlord_id=$2 AND property_id=$3
    `, tenantID, landlordID, propertyID)
	t, err := scanThread(row)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}

	t = &models.MessageThread{
		ID:         uuid.New(),
		TenantID:   tenantID,
		LandlordID: landlordID,
		PropertyID: propertyID,
	}
	row = r.db.QueryRow(ctx, `
        INSERT INTO message_threads (id, tenant_id, landlord_id, property_id, created_at)
        VALUES ($1,$2,$3,$4, NOW())
        ON CONFLICT (tenant_id, landlord_id, property_id) DO UPDATE SET tenant_id=EXCLUDED.tenant_id
        RETURNING id, tenant_id, landlord_id, property_id, created_at
    `, t.ID, t.TenantID, t.LandlordID, t.PropertyID)
	return scanThread(row)
}

func (r *messageRepo) GetThreadByID(ctx context.Context, id uuid.UUID) (*models.MessageThread, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, tenant_id, landlord_id, property_id, created_at
        FROM message_threads WHERE id=$1
    `, id)
	return scanThread(row)
}

func (r *messageRepo) ListThreadsByUserID(ctx context.Context, userID uuid.UUID) ([]*models.MessageThread, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, tenant_id, landlord_id, property_id, created_at
        FROM message_threads
        WHERE tenant_id=$1 OR landlord_id=$1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MessageThread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *messageRepo) CreateMessage(ctx context.Context, m *models.Message) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO messages (id, thread_id, sender_id, body, sent_at)
        VALUES ($1,$2,$3,$4, NOW())
    `, m.ID, m.ThreadID, m.SenderID, m.Body)
	return err
}

func (r *messageRepo) ListMessagesByThreadID(ctx context.Context, threadID uuid.UUID) ([]*models.Message, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, thread_id, sender_id, body, sent_at
        FROM messages
        WHERE thread_id=$1
        ORDER BY sent_at
    `, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
