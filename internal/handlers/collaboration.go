package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/pkg/response"
)

type CollaborationHandler struct {
	collaboration *services.CollaborationService
}

func NewCollaborationHandler(collaboration *services.CollaborationService) *CollaborationHandler {
	return &CollaborationHandler{collaboration: collaboration}
}

// Invite emails a collaboration invitation
// POST /api/collaboration/invite
func (h *CollaborationHandler) Invite(c *gin.Context) {
	var req services.InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.collaboration.Invite(c.Request.Context(), principal(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Collaboration invitation sent successfully to "+inv.Email, gin.H{
		"emailId":    inv.EmailID,
		"mode":       inv.Mode,
		"invitation": inv,
	})
}

// Invitations lists the invitations sent for a proposal
// GET /api/collaboration/invitations/:proposalId
func (h *CollaborationHandler) Invitations(c *gin.Context) {
	id, ok := idParam(c, "proposalId", msgInvalidProposalID)
	if !ok {
		return
	}

	invitations, err := h.collaboration.Invitations(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"invitations": invitations})
}
