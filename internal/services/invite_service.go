package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/lettora/rentals-service/internal/config"
	"github.com/lettora/rentals-service/internal/constants"
	"github.com/lettora/rentals-service/internal/dtos"
	"github.com/lettora/rentals-service/internal/invites"
	"github.com/lettora/rentals-service/internal/models"
	"github.com/lettora/rentals-service/internal/repositories"
	"github.com/lettora/rentals-service/internal/utils"
)

// InviteService applies the viewing-invite lifecycle. Every mutation
// goes through the transition table; a rejected proposal writes nothing.
type InviteService struct {
	cfg            *config.Config
	inviteRepo     repositories.ViewingInviteRepository
	propRepo       repositories.PropertyRepository
	accountRepo    repositories.AccountRepository
	twilioClient   *twilio.RestClient
	sendgridClient *sendgrid.Client
}

func NewInviteService(
	cfg *config.Config,
	inviteRepo repositories.ViewingInviteRepository,
	propRepo repositories.PropertyRepository,
	accountRepo repositories.AccountRepository,
	twilioClient *twilio.RestClient,
	sendgridClient *sendgrid.Client,
) *InviteService {
	return &InviteService{
		cfg:            cfg,
		inviteRepo:     inviteRepo,
		propRepo:       propRepo,
		accountRepo:    accountRepo,
		twilioClient:   twilioClient,
		sendgridClient: sendgridClient,
	}
}

func (s *InviteService) Create(
	ctx context.Context,
	landlordID uuid.UUID,
	req dtos.CreateInviteRequest,
) (*dtos.InviteDTO, error) {
	prop, err := s.propRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}
	if prop.LandlordID != landlordID {
		return nil, utils.ErrNotInviteRecipient
	}

	inv := &models.ViewingInvite{
		ID:                     uuid.New(),
		PropertyID:             req.PropertyID,
		LandlordID:             landlordID,
		TenantID:               req.TenantID,
		Response:               models.InviteResponsePending,
		ScheduleDate:           req.ScheduleDate,
		ResponseStepsCompleted: []string{},
	}
	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	created, err := s.inviteRepo.GetByID(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	return buildInviteDTO(created)
}

func (s *InviteService) GetByID(ctx context.Context, userID, id uuid.UUID) (*dtos.InviteDTO, error) {
	inv, err := s.inviteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, utils.ErrInviteNotFound
	}
	if inv.TenantID != userID && inv.LandlordID != userID {
		return nil, utils.ErrNotInviteRecipient
	}
	return buildInviteDTO(inv)
}

func (s *InviteService) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]dtos.InviteDTO, error) {
	invs, err := s.inviteRepo.ListByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return buildInviteDTOs(invs)
}

func (s *InviteService) ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]dtos.InviteDTO, error) {
	invs, err := s.inviteRepo.ListByLandlordID(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	return buildInviteDTOs(invs)
}

// Respond applies one proposed action. The stored state is read, the
// transition validated, and the write gated on the row version the read
// observed; an illegal action or a lost race leaves the record as-is.
func (s *InviteService) Respond(
	ctx context.Context,
	userID uuid.UUID,
	actor invites.Actor,
	inviteID uuid.UUID,
	req dtos.InviteActionRequest,
) (*dtos.InviteDTO, error) {
	inv, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, utils.ErrInviteNotFound
	}

	switch actor {
	case invites.ActorTenant:
		if inv.TenantID != userID {
			return nil, utils.ErrNotInviteRecipient
		}
	case invites.ActorLandlord:
		if inv.LandlordID != userID {
			return nil, utils.ErrNotInviteRecipient
		}
	}

	to, err := invites.Propose(inv.Response, req.Action, actor)
	if err != nil {
		return nil, err
	}

	var rescheduleDate *time.Time
	var rescheduleReason *string
	if req.Action == invites.ActionReschedule {
		if req.RescheduleDate == nil || req.Reason == nil || *req.Reason == "" {
			return nil, &utils.AppError{
				StatusCode: 400,
				Code:       utils.ErrCodeInvalidPayload,
				Message:    "Reschedule requires a proposed date and a reason",
			}
		}
		rescheduleDate = req.RescheduleDate
		rescheduleReason = req.Reason
	}

	label := invites.AuditLabel(req.Action, to)
	updated, err := s.inviteRepo.UpdateResponseAtomic(
		ctx, inviteID, inv.RowVersion, to, label, rescheduleDate, rescheduleReason,
	)
	if err != nil {
		if errors.Is(err, utils.ErrRowVersionConflict) {
			latest, _ := s.inviteRepo.GetByID(ctx, inviteID)
			if latest != nil {
				return nil, utils.NewRowVersionConflictError(latest)
			}
		}
		return nil, err
	}

	if actor == invites.ActorTenant {
		s.notifyLandlord(ctx, updated, req.Action)
	}

	return buildInviteDTO(updated)
}

// SweepAwaitingFeedback is the cron body: confirmed invites whose
// effective viewing time passed the grace period move to
// AWAITING_FEEDBACK via the same transition table as everything else.
func (s *InviteService) SweepAwaitingFeedback(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-constants.FeedbackGracePeriod)
	due, err := s.inviteRepo.ListDueForFeedback(ctx, cutoff)
	if err != nil {
		utils.Logger.WithError(err).Error("Awaiting-feedback sweep: list failed")
		return
	}

	for _, inv := range due {
		to, err := invites.Propose(inv.Response, invites.ActionAwaitFeedback, invites.ActorSystem)
		if err != nil {
			utils.Logger.WithError(err).Warnf("Sweep skipping invite %s in state %s", inv.ID, inv.Response)
			continue
		}
		label := invites.AuditLabel(invites.ActionAwaitFeedback, to)
		_, err = s.inviteRepo.UpdateResponseAtomic(ctx, inv.ID, inv.RowVersion, to, label, nil, nil)
		if err != nil {
			// Lost race with a live actor; the next run re-evaluates.
			utils.Logger.WithError(err).Warnf("Sweep could not move invite %s", inv.ID)
		}
	}
}

// SendViewingReminders notifies tenants of confirmed viewings coming up
// within the lead time. Behind the send_viewing_reminders flag.
func (s *InviteService) SendViewingReminders(ctx context.Context) {
	if !s.cfg.LDFlag_SendViewingReminders {
		return
	}

	now := time.Now().UTC()
	upcoming, err := s.inviteRepo.ListUpcomingForReminder(ctx, now, now.Add(constants.ViewingReminderLeadTime))
	if err != nil {
		utils.Logger.WithError(err).Error("Viewing reminders: list failed")
		return
	}

	for _, inv := range upcoming {
		tenant, err := s.accountRepo.GetByID(ctx, inv.TenantID)
		if err != nil || tenant == nil || tenant.PhoneNumber == "" {
			continue
		}
		prop, _ := s.propRepo.GetByID(ctx, inv.PropertyID)
		propName := "your viewing"
		if prop != nil {
			propName = prop.Name
		}

		// Mark before sending so a hot loop of cron runs can never
		// text the same tenant twice for one viewing.
		if err := s.inviteRepo.MarkReminderSent(ctx, inv.ID); err != nil {
			utils.Logger.WithError(err).Warnf("Could not mark reminder for invite %s", inv.ID)
			continue
		}

		if s.twilioClient == nil {
			continue
		}
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(tenant.PhoneNumber)
		params.SetFrom(s.cfg.LDFlag_TwilioFromPhone)
		params.SetBody(fmt.Sprintf(
			"%s reminder: viewing for %s on %s",
			s.cfg.OrganizationName, propName, inv.EffectiveDate().Format("Mon Jan 2 3:04 PM"),
		))
		if _, smsErr := s.twilioClient.Api.CreateMessage(params); smsErr != nil {
			utils.Logger.WithError(smsErr).Warnf("Failed to send viewing reminder for invite %s", inv.ID)
		}
	}
}

func (s *InviteService) notifyLandlord(ctx context.Context, inv *models.ViewingInvite, action invites.Action) {
	if s.sendgridClient == nil {
		return
	}
	landlord, err := s.accountRepo.GetByID(ctx, inv.LandlordID)
	if err != nil || landlord == nil || landlord.Email == "" {
		utils.Logger.Warnf("No landlord contact for invite %s, skipping email", inv.ID)
		return
	}
	prop, _ := s.propRepo.GetByID(ctx, inv.PropertyID)
	propName := "(unknown property)"
	if prop != nil {
		propName = prop.Name
	}

	subject := fmt.Sprintf("Viewing invite update: %s", propName)
	body := fmt.Sprintf(
		"The tenant responded to your viewing invite for %s.\n\nAction: %s\nStatus: %s\nDate: %s",
		propName, action, inv.Response, inv.EffectiveDate().Format(time.RFC1123),
	)
	if inv.RescheduleReason != nil {
		body += "\nReason: " + *inv.RescheduleReason
	}

	from := mail.NewEmail(s.cfg.OrganizationName, s.cfg.LDFlag_SendgridFromEmail)
	to := mail.NewEmail(landlord.FullName(), landlord.Email)
	msg := mail.NewSingleEmail(from, subject, to, body, "")
	if s.cfg.LDFlag_SendgridSandboxMode {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}
	if _, sgErr := s.sendgridClient.Send(msg); sgErr != nil {
		utils.Logger.WithError(sgErr).Warnf("Email send failure for invite %s", inv.ID)
	}
}

func buildInviteDTO(inv *models.ViewingInvite) (*dtos.InviteDTO, error) {
	pres, err := invites.Derive(inv)
	if err != nil {
		return nil, err
	}
	return &dtos.InviteDTO{
		ID:                     inv.ID,
		PropertyID:             inv.PropertyID,
		TenantID:               inv.TenantID,
		LandlordID:             inv.LandlordID,
		Response:               inv.Response,
		ScheduleDate:           inv.ScheduleDate,
		RescheduleDate:         inv.RescheduleDate,
		RescheduleReason:       inv.RescheduleReason,
		ResponseStepsCompleted: inv.ResponseStepsCompleted,
		Presentation:           pres,
		CreatedAt:              inv.CreatedAt,
		UpdatedAt:              inv.UpdatedAt,
	}, nil
}

func buildInviteDTOs(invs []*models.ViewingInvite) ([]dtos.InviteDTO, error) {
	out := make([]dtos.InviteDTO, 0, len(invs))
	for _, inv := range invs {
		dto, err := buildInviteDTO(inv)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}
