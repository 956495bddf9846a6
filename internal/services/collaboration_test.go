package services

import (
	"context"
	"testing"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollaborationService_Invite(t *testing.T) {
	e := newEnv(t)
	svc := NewCollaborationService(e.db, e.notifier, e.audit)
	ctx := context.Background()
	p := e.submit(t, "Shared work")

	inv, err := svc.Invite(ctx, principal(e.author), &InviteRequest{
		ProposalID:    models.FlexibleID(p.ID),
		ProposalTitle: "Shared work",
		Email:         "Guest@Example.com",
		Role:          "co-investigator",
		Message:       "Join us",
	})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", inv.Email)
	assert.Equal(t, "test-1", inv.EmailID)
	assert.Equal(t, "test", inv.Mode)
	assert.Equal(t, e.author.ID, inv.InvitedByID)

	msgs := e.mail.to("guest@example.com")
	require.Len(t, msgs, 1)
	assert.True(t, containsAll(msgs[0].HTMLBody, "Asha Rao", "co-investigator", "Join us"))

	list, err := svc.Invitations(ctx, principal(e.reviewer), p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inv.ID, list[0].ID)
}

func TestCollaborationService_InviteValidation(t *testing.T) {
	e := newEnv(t)
	svc := NewCollaborationService(e.db, e.notifier, e.audit)
	ctx := context.Background()
	p := e.submit(t, "Shared work")
	id := models.FlexibleID(p.ID)

	tests := []struct {
		name string
		req  InviteRequest
		kind response.Kind
	}{
		{"missing proposal", InviteRequest{ProposalTitle: "t", Email: "a@b.co", Role: "r"}, response.KindValidation},
		{"missing title", InviteRequest{ProposalID: id, Email: "a@b.co", Role: "r"}, response.KindValidation},
		{"missing email", InviteRequest{ProposalID: id, ProposalTitle: "t", Role: "r"}, response.KindValidation},
		{"missing role", InviteRequest{ProposalID: id, ProposalTitle: "t", Email: "a@b.co"}, response.KindValidation},
		{"bad email", InviteRequest{ProposalID: id, ProposalTitle: "t", Email: "a@b", Role: "r"}, response.KindValidation},
		{"unknown proposal", InviteRequest{ProposalID: 999, ProposalTitle: "t", Email: "a@b.co", Role: "r"}, response.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invite(ctx, principal(e.author), &tt.req)
			assert.Equal(t, tt.kind, response.KindOf(err), "got %v", err)
		})
	}
	assert.Empty(t, e.mail.messages())
}

func TestCollaborationService_InviteDeliveryFailure(t *testing.T) {
	e := newEnv(t)
	svc := NewCollaborationService(e.db, e.notifier, e.audit)
	p := e.submit(t, "Shared work")
	e.mail.fail = true

	_, err := svc.Invite(context.Background(), principal(e.author), &InviteRequest{
		ProposalID: models.FlexibleID(p.ID), ProposalTitle: "Shared work", Email: "a@b.co", Role: "r",
	})
	require.Error(t, err)
	appErr := err.(*response.AppError)
	assert.Equal(t, 500, appErr.HTTPStatus)
	assert.Equal(t, "Failed to send collaboration invitation", appErr.Message)

	var recorded []models.Invitation
	require.NoError(t, e.db.Find(&recorded).Error)
	require.Len(t, recorded, 1)
	assert.Equal(t, InvitationFailed, recorded[0].Status)
	assert.Equal(t, "a@b.co", recorded[0].Email)
}

func TestCollaborationService_InvitationsAccess(t *testing.T) {
	e := newEnv(t)
	svc := NewCollaborationService(e.db, e.notifier, e.audit)
	ctx := context.Background()
	p := e.submit(t, "Shared work")

	_, err := svc.Invite(ctx, principal(e.author), &InviteRequest{
		ProposalID: models.FlexibleID(p.ID), ProposalTitle: "Shared work", Email: "secret@example.com", Role: "r",
	})
	require.NoError(t, err)
	_, err = e.proposals.AssignStaff(ctx, principal(e.reviewer), p.ID, &AssignStaffRequest{StaffID: models.FlexibleID(e.staff.ID)})
	require.NoError(t, err)

	for _, u := range []*models.User{e.author, e.reviewer, e.staff} {
		list, err := svc.Invitations(ctx, principal(u), p.ID)
		require.NoError(t, err, u.Name)
		assert.Len(t, list, 1, u.Name)
	}
	for _, u := range []*models.User{e.other, e.staff2} {
		list, err := svc.Invitations(ctx, principal(u), p.ID)
		assert.Equal(t, response.KindAuthorization, response.KindOf(err), u.Name)
		assert.Nil(t, list)
	}

	_, err = svc.Invitations(ctx, principal(e.author), 999)
	assert.Equal(t, response.KindNotFound, response.KindOf(err))
}
