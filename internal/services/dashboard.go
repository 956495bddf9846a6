package services

import (
	"context"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

type DashboardService struct {
	proposals *store.ProposalStore
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{proposals: store.NewProposalStore(db)}
}

// DashboardStats counts the proposals the caller can see. ByStatus always
// carries every status, with zero for the absent ones.
type DashboardStats struct {
	Role      models.Role                     `json:"role"`
	Total     int64                           `json:"total"`
	ByStatus  map[models.ProposalStatus]int64 `json:"byStatus"`
	Pending   int64                           `json:"pending"`
	Decided   int64                           `json:"decided"`
	WithStaff int64                           `json:"withStaff"`
}

func (s *DashboardService) Stats(ctx context.Context, caller access.Principal) (*DashboardStats, error) {
	if err := authorize(caller, access.OpViewStats, access.Facts{}); err != nil {
		return nil, err
	}

	var scope func(*gorm.DB) *gorm.DB
	switch caller.Role {
	case models.RoleUser:
		scope = store.AuthoredBy(caller.UserID)
	case models.RoleReviewer:
		scope = store.NonDraft()
	case models.RoleStaff:
		scope = s.proposals.AssignedTo(caller.UserID)
	default:
		return nil, response.NewAuthorization("Unknown role")
	}

	rows, err := s.proposals.CountByStatus(ctx, scope)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{Role: caller.Role, ByStatus: make(map[models.ProposalStatus]int64, len(models.ProposalStatuses))}
	for _, status := range models.ProposalStatuses {
		stats.ByStatus[status] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] += row.Count
		stats.Total += row.Count
		switch row.Status {
		case models.StatusSubmitted, models.StatusUnderReview, models.StatusNeedsRevision:
			stats.Pending += row.Count
		case models.StatusAssignedToStaff, models.StatusStaffReviewing:
			stats.WithStaff += row.Count
		case models.StatusApproved, models.StatusRejected, models.StatusCompleted:
			stats.Decided += row.Count
		}
	}
	return stats, nil
}
