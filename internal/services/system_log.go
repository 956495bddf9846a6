package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

// SystemLogService writes and queries the audit trail. A nil service
// records nothing.
type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// AuditEvent is one audit record before persistence.
type AuditEvent struct {
	Level      string
	Module     string
	Action     string
	Message    string
	UserID     uint
	ProposalID uint
	IP         string
	UserAgent  string
	Extra      interface{}
}

// Record persists e. Audit failures are logged and never returned.
func (s *SystemLogService) Record(ctx context.Context, e AuditEvent) {
	if s == nil {
		return
	}

	var extra string
	if e.Extra != nil {
		if b, err := json.Marshal(e.Extra); err == nil {
			extra = string(b)
		}
	}
	if e.Level == "" {
		e.Level = "info"
	}

	entry := &models.SystemLog{
		Level:     e.Level,
		Module:    e.Module,
		Action:    e.Action,
		Message:   e.Message,
		IP:        e.IP,
		UserAgent: truncate(e.UserAgent, 500),
		Extra:     extra,
		CreatedAt: time.Now(),
	}
	if e.UserID != 0 {
		uid := e.UserID
		entry.UserID = &uid
	}
	if e.ProposalID != 0 {
		pid := e.ProposalID
		entry.ProposalID = &pid
	}

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", e.Module).Str("action", e.Action).Msg("[Audit] failed to record event")
	}
}

type SystemLogListRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
	Level      string `form:"level"`
	Module     string `form:"module"`
	ProposalID uint   `form:"proposalId"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(ctx context.Context, req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.SystemLog{})
	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.ProposalID != 0 {
		query = query.Where("proposal_id = ?", req.ProposalID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, response.NewPersistence("failed to count logs", err)
	}

	var logs []models.SystemLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, response.NewPersistence("failed to list logs", err)
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// CleanupOldLogs deletes logs older than retentionDays and returns the
// number of deleted records.
func (s *SystemLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
