package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/services"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/pkg/response"
)

const msgInvalidProposalID = "Invalid proposal ID"

type ProposalHandler struct {
	proposals *services.ProposalService
	ai        *services.AIService
}

func NewProposalHandler(proposals *services.ProposalService, ai *services.AIService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, ai: ai}
}

type listQuery struct {
	Status   string `form:"status"`
	Domain   string `form:"domain"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

func bindFilter(c *gin.Context) (store.ProposalFilter, bool) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return store.ProposalFilter{}, false
	}
	status := models.ProposalStatus(q.Status)
	if status != "" && !status.Valid() {
		response.BadRequest(c, "Invalid status")
		return store.ProposalFilter{}, false
	}
	return store.ProposalFilter{Status: status, Domain: q.Domain, Page: q.Page, PageSize: q.PageSize}, true
}

func pagePayload(page *services.ProposalPage) gin.H {
	return gin.H{
		"count":     len(page.Proposals),
		"total":     page.Total,
		"proposals": page.Proposals,
	}
}

// Create submits a new proposal
// POST /api/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	var req services.CreateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.Create(c.Request.Context(), principal(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Proposal created successfully", gin.H{"proposal": p})
}

// List returns the proposals visible to the caller's role
// GET /api/proposals
func (h *ProposalHandler) List(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.proposals.List(c.Request.Context(), principal(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", pagePayload(page))
}

// ListMine
// GET /api/proposals/my-proposals
func (h *ProposalHandler) ListMine(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.proposals.ListMine(c.Request.Context(), principal(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", pagePayload(page))
}

// ListAssigned
// GET /api/proposals/assigned
func (h *ProposalHandler) ListAssigned(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	page, err := h.proposals.ListAssigned(c.Request.Context(), principal(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", pagePayload(page))
}

// Get
// GET /api/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	p, err := h.proposals.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{"proposal": p})
}

// Update edits a draft or resubmits a proposal sent back for revision
// PUT /api/proposals/:id
func (h *ProposalHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	var req services.UpdateProposalRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.Update(c.Request.Context(), principal(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Proposal updated successfully", gin.H{"proposal": p})
}

// AddFeedback
// POST /api/proposals/:id/feedback
func (h *ProposalHandler) AddFeedback(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	var req services.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.AddFeedback(c.Request.Context(), principal(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Feedback added successfully", gin.H{"proposal": p})
}

// AssignStaff
// POST /api/proposals/:id/assign
func (h *ProposalHandler) AssignStaff(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	var req services.AssignStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.AssignStaff(c.Request.Context(), principal(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Staff assigned successfully", gin.H{"proposal": p})
}

// UpdateStatus records a reviewer decision
// PUT /api/proposals/:id/status
func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	var req services.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.UpdateStatus(c.Request.Context(), principal(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, fmt.Sprintf("Proposal status updated to %s", p.Status), gin.H{"proposal": p})
}

// SubmitStaffReport
// POST /api/proposals/:id/staff-report
func (h *ProposalHandler) SubmitStaffReport(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}
	var req services.StaffReportRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.proposals.SubmitStaffReport(c.Request.Context(), principal(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "Staff report submitted successfully", gin.H{"proposal": p})
}

// AISuggestions returns review suggestions without touching the proposal
// POST /api/proposals/:id/ai-suggestions
func (h *ProposalHandler) AISuggestions(c *gin.Context) {
	id, ok := idParam(c, "id", msgInvalidProposalID)
	if !ok {
		return
	}

	res, err := h.ai.Suggest(c.Request.Context(), principal(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "", gin.H{
		"proposalId":  res.ProposalID,
		"suggestions": res.Suggestions,
		"source":      res.Source,
		"model":       res.Model,
	})
}
