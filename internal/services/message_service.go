package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/utils"
)

// MessageService is a thin thread/message layer: one thread per
// (tenant, landlord, property), append-only messages.
type MessageService struct {
	msgRepo  repositories.MessageRepository
	propRepo repositories.PropertyRepository
}

func NewMessageService(
	msgRepo repositories.MessageRepository,
	propRepo repositories.PropertyRepository,
) *MessageService {
	return &MessageService{
		msgRepo:  msgRepo,
		propRepo: propRepo,
	}
}

func (s *MessageService) StartThread(
	ctx context.Context,
	tenantID, landlordID, propertyID uuid.UUID,
) (*models.MessageThread, error) {
	prop, err := s.propRepo.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}
	return s.msgRepo.GetOrCreateThread(ctx, tenantID, landlordID, propertyID)
}

func (s *MessageService) ListThreads(ctx context.Context, userID uuid.UUID) ([]*models.MessageThread, error) {
	return s.msgRepo.ListThreadsByUserID(ctx, userID)
}

func (s *MessageService) GetThread(ctx context.Context, userID, threadID uuid.UUID) (*models.MessageThread, error) {
	return s.requireParticipant(ctx, userID, threadID)
}

func (s *MessageService) SendMessage(
	ctx context.Context,
	userID, threadID uuid.UUID,
	body string,
) (*models.Message, error) {
	thread, err := s.requireParticipant(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:       uuid.New(),
		ThreadID: thread.ID,
		SenderID: userID,
		Body:     body,
	}
	if err := s.msgRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, userID, threadID uuid.UUID) ([]*models.Message, error) {
	if _, err := s.requireParticipant(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return s.msgRepo.ListMessagesByThreadID(ctx, threadID)
}

func (s *MessageService) requireParticipant(ctx context.Context, userID, threadID uuid.UUID) (*models.MessageThread, error) {
	thread, err := s.msgRepo.GetThreadByID(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, utils.ErrNotFoundThread
	}
	if thread.TenantID != userID && thread.LandlordID != userID {
		return nil, utils.ErrNotFoundThread
	}
	return thread, nil
}
