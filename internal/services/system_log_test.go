package services

import (
	"context"
	"testing"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemLogService_RecordAndList(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSystemLogService(db)
	ctx := context.Background()

	s.Record(ctx, AuditEvent{Module: "Proposals", Action: "Submit", Message: "a", UserID: 1, ProposalID: 9, Extra: map[string]string{"k": "v"}})
	s.Record(ctx, AuditEvent{Level: "warning", Module: "Auth", Action: "Login", Message: "b"})

	all, err := s.List(ctx, &SystemLogListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, 1, all.Page)
	assert.Equal(t, 20, all.PageSize)

	byProposal, err := s.List(ctx, &SystemLogListRequest{ProposalID: 9})
	require.NoError(t, err)
	require.Len(t, byProposal.Items, 1)
	entry := byProposal.Items[0]
	assert.Equal(t, "info", entry.Level)
	assert.JSONEq(t, `{"k":"v"}`, entry.Extra)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uint(1), *entry.UserID)

	warnings, err := s.List(ctx, &SystemLogListRequest{Level: "warning"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), warnings.Total)
}

func TestSystemLogService_Nil(t *testing.T) {
	var s *SystemLogService
	assert.NotPanics(t, func() { s.Record(context.Background(), AuditEvent{Module: "x"}) })
}

func TestSystemLogService_CleanupKeepsRecent(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSystemLogService(db)
	s.Record(context.Background(), AuditEvent{Module: "m", Action: "a"})

	deleted, err := s.CleanupOldLogs(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = s.CleanupOldLogs(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	var count int64
	db.Model(&models.SystemLog{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
