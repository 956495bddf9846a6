package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/internal/utils"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

const errInviteFailed = "Failed to send collaboration invitation"

// Invitation delivery states.
const (
	InvitationSent   = "sent"
	InvitationFailed = "failed"
)

type CollaborationService struct {
	proposals   *store.ProposalStore
	invitations *store.InvitationStore
	notifier    *NotificationService
	audit       *SystemLogService
}

func NewCollaborationService(db *gorm.DB, notifier *NotificationService, audit *SystemLogService) *CollaborationService {
	return &CollaborationService{
		proposals:   store.NewProposalStore(db),
		invitations: store.NewInvitationStore(db),
		notifier:    notifier,
		audit:       audit,
	}
}

type InviteRequest struct {
	ProposalID    models.FlexibleID `json:"proposalId"`
	ProposalTitle string            `json:"proposalTitle"`
	Email         string            `json:"email"`
	Role          string            `json:"role"`
	Message       string            `json:"message"`
	InviterName   string            `json:"inviterName"`
}

// Invite emails a collaboration invitation synchronously and records it.
func (s *CollaborationService) Invite(ctx context.Context, caller access.Principal, req *InviteRequest) (*models.Invitation, error) {
	if err := authorize(caller, access.OpInvite, access.Facts{}); err != nil {
		return nil, err
	}

	email := utils.NormalizeEmail(req.Email)
	title := utils.SanitizeText(req.ProposalTitle)
	role := utils.SanitizeText(req.Role)
	if req.ProposalID == 0 || title == "" || email == "" || role == "" {
		return nil, response.NewValidation("Please provide proposalId, proposalTitle, email and role")
	}
	if !utils.IsValidEmail(email) {
		return nil, response.NewValidation("Please provide a valid email address")
	}
	if _, err := s.proposals.FindTitle(ctx, uint(req.ProposalID)); err != nil {
		return nil, err
	}

	inviter := utils.SanitizeText(req.InviterName)
	if inviter == "" {
		inviter = caller.Name
	}
	message := utils.SanitizeText(req.Message)

	result := s.notifier.SendCollaborationInvite(ctx, email, title, inviter, role, message)
	inv := &models.Invitation{
		ProposalID:    uint(req.ProposalID),
		ProposalTitle: title,
		Email:         email,
		Role:          role,
		Message:       message,
		InvitedByID:   caller.UserID,
		Status:        InvitationSent,
		EmailID:       result.MessageID,
		Mode:          result.Mode,
	}
	if !result.Success {
		inv.Status = InvitationFailed
		if err := s.invitations.Create(ctx, inv); err != nil {
			logger.Error().Err(err).Str("email", email).Msg("[Collaboration] failed to record undelivered invitation")
		}
		return nil, response.NewDelivery(errInviteFailed, errors.New(result.Error))
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEvent{
		Module:     "Collaboration",
		Action:     "Invite",
		Message:    fmt.Sprintf("%s invited %s as %s", caller.Name, email, role),
		UserID:     caller.UserID,
		ProposalID: inv.ProposalID,
	})
	return inv, nil
}

// Invitations lists the invitations recorded for a proposal the caller can
// read.
func (s *CollaborationService) Invitations(ctx context.Context, caller access.Principal, proposalID uint) ([]models.Invitation, error) {
	if err := authorize(caller, access.OpInvite, access.Facts{}); err != nil {
		return nil, err
	}
	p, err := s.proposals.FindByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpReadProposal, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}
	invitations, err := s.invitations.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if invitations == nil {
		invitations = []models.Invitation{}
	}
	return invitations, nil
}
