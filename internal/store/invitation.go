package store

import (
	"context"

	"github.com/naccer/portal/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvitationStore struct {
	db *gorm.DB
}

func NewInvitationStore(db *gorm.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func (s *InvitationStore) Create(ctx context.Context, inv *models.Invitation) error {
	return translate(s.db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error, "", "failed to save invitation")
}

func (s *InvitationStore) ListByProposal(ctx context.Context, proposalID uint) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := s.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("created_at DESC, id DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, translate(err, "", "failed to list invitations")
	}
	return invitations, nil
}
