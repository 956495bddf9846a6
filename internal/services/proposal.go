package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/naccer/portal/backend/internal/access"
	"github.com/naccer/portal/backend/internal/metrics"
	"github.com/naccer/portal/backend/internal/models"
	"github.com/naccer/portal/backend/internal/store"
	"github.com/naccer/portal/backend/internal/utils"
	"github.com/naccer/portal/backend/pkg/logger"
	"github.com/naccer/portal/backend/pkg/response"
	"gorm.io/gorm"
)

// ProposalService governs the proposal lifecycle: every state transition,
// feedback entry and staff assignment goes through it.
type ProposalService struct {
	proposals *store.ProposalStore
	users     *store.UserStore
	notifier  *NotificationService
	audit     *SystemLogService
	metrics   *metrics.Metrics
	events    *EventHub
	now       func() time.Time
}

func NewProposalService(db *gorm.DB, notifier *NotificationService, audit *SystemLogService, m *metrics.Metrics, events *EventHub) *ProposalService {
	return &ProposalService{
		proposals: store.NewProposalStore(db),
		users:     store.NewUserStore(db),
		notifier:  notifier,
		audit:     audit,
		metrics:   m,
		events:    events,
		now:       time.Now,
	}
}

func authorize(caller access.Principal, op access.Operation, facts access.Facts) error {
	if d := access.Decide(caller, op, facts); !d.Allowed {
		return response.NewAuthorization(d.Reason)
	}
	return nil
}

func (s *ProposalService) transitioned(ctx context.Context, caller access.Principal, p *models.Proposal, from, to models.ProposalStatus, action string) {
	s.events.Publish(newProposalEvent(p, action, from, caller.Name))
	if from == to {
		return
	}
	s.metrics.ObserveTransition(string(from), string(to))
	s.audit.Record(ctx, AuditEvent{
		Module:     "Proposals",
		Action:     action,
		Message:    fmt.Sprintf("Proposal %d moved from %s to %s by %s", p.ID, from, to, caller.Name),
		UserID:     caller.UserID,
		ProposalID: p.ID,
		Extra:      map[string]interface{}{"from": from, "to": to},
	})
	logger.Info().
		Uint("proposal_id", p.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Uint("by", caller.UserID).
		Msg("[Proposal] status changed")
}

type CreateProposalRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Domain      string            `json:"domain"`
	Budget      *float64          `json:"budget"`
	Tags        models.StringList `json:"tags"`
	Priority    string            `json:"priority"`
}

func parsePriority(s string) (models.Priority, error) {
	p := models.Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return models.PriorityMedium, nil
	}
	if !p.Valid() {
		return "", response.NewValidation("Priority must be one of low, medium, high, urgent")
	}
	return p, nil
}

func cleanTags(tags models.StringList) models.StringList {
	out := make(models.StringList, 0, len(tags))
	for _, t := range tags {
		if t = utils.SanitizeText(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Create submits a new proposal authored by caller. Status is always
// submitted, whatever the request carries.
func (s *ProposalService) Create(ctx context.Context, caller access.Principal, req *CreateProposalRequest) (*models.Proposal, error) {
	if err := authorize(caller, access.OpCreateProposal, access.Facts{}); err != nil {
		return nil, err
	}

	title := utils.SanitizeText(req.Title)
	description := utils.SanitizeText(req.Description)
	domain := utils.SanitizeText(req.Domain)
	if title == "" || description == "" || domain == "" || req.Budget == nil {
		return nil, response.NewValidation("Please provide all required fields: title, description, domain, budget")
	}
	if *req.Budget < 0 {
		return nil, response.NewValidation("Budget cannot be negative")
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Proposal{
		Title:       title,
		Description: description,
		Domain:      domain,
		Budget:      *req.Budget,
		AuthorID:    caller.UserID,
		Status:      models.StatusSubmitted,
		Timeline:    models.Timeline{Submitted: &now},
		Tags:        cleanTags(req.Tags),
		Priority:    priority,
	}
	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, err
	}

	created, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	s.transitioned(ctx, caller, created, models.StatusDraft, models.StatusSubmitted, "Submit")
	s.notifier.NotifyStatusChange(ctx, created.Author, created.Title, models.StatusDraft, models.StatusSubmitted,
		"System", "Your proposal has been successfully submitted and is now under review.")
	return created, nil
}

type UpdateProposalRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Domain      *string            `json:"domain"`
	Budget      *float64           `json:"budget"`
	Tags        *models.StringList `json:"tags"`
	Priority    *string            `json:"priority"`
}

// Update edits a draft or a proposal sent back for revision. The state check
// runs before the ownership check, so a locked proposal reports StateError
// to every caller.
func (s *ProposalService) Update(ctx context.Context, caller access.Principal, id uint, req *UpdateProposalRequest) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.Editable() {
		return nil, response.NewState("Cannot update proposal in current status")
	}
	if err := authorize(caller, access.OpUpdateProposal, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	candidate := *p
	fields := map[string]interface{}{}
	if req.Title != nil {
		candidate.Title = utils.SanitizeText(*req.Title)
		fields["title"] = candidate.Title
	}
	if req.Description != nil {
		candidate.Description = utils.SanitizeText(*req.Description)
		fields["description"] = candidate.Description
	}
	if req.Domain != nil {
		candidate.Domain = utils.SanitizeText(*req.Domain)
		fields["domain"] = candidate.Domain
	}
	if req.Budget != nil {
		candidate.Budget = *req.Budget
		fields["budget"] = candidate.Budget
	}
	if req.Tags != nil {
		candidate.Tags = cleanTags(*req.Tags)
		fields["tags"] = candidate.Tags
	}
	if req.Priority != nil {
		priority, err := parsePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		candidate.Priority = priority
		fields["priority"] = priority
	}
	if err := candidate.Validate(); err != nil {
		return nil, response.NewValidation(err.Error())
	}

	from := p.Status
	if from == models.StatusNeedsRevision {
		now := s.now()
		fields["status"] = models.StatusSubmitted
		fields["timeline_submitted"] = now
	}

	if len(fields) > 0 {
		if err := s.proposals.UpdateFields(ctx, p.ID, fields); err != nil {
			return nil, err
		}
	}

	updated, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	action := "Update"
	if from != updated.Status {
		action = "Resubmit"
	}
	s.transitioned(ctx, caller, updated, from, updated.Status, action)
	return updated, nil
}

// Get returns a proposal the caller may see.
func (s *ProposalService) Get(ctx context.Context, caller access.Principal, id uint) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpReadProposal, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}
	return p, nil
}

// ProposalPage is one page of a listing.
type ProposalPage struct {
	Proposals []models.Proposal `json:"proposals"`
	Total     int64             `json:"total"`
}

// List returns the proposals visible to caller's role: own for users, all
// submitted for reviewers, assigned for staff.
func (s *ProposalService) List(ctx context.Context, caller access.Principal, filter store.ProposalFilter) (*ProposalPage, error) {
	if err := authorize(caller, access.OpListProposals, access.Facts{}); err != nil {
		return nil, err
	}

	var (
		proposals []models.Proposal
		total     int64
		err       error
	)
	switch caller.Role {
	case models.RoleUser:
		proposals, total, err = s.proposals.ListByAuthor(ctx, caller.UserID, filter)
	case models.RoleReviewer:
		proposals, total, err = s.proposals.ListNonDraft(ctx, filter)
	case models.RoleStaff:
		proposals, total, err = s.proposals.ListAssignedTo(ctx, caller.UserID, filter)
	default:
		return nil, response.NewAuthorization("Unknown role")
	}
	if err != nil {
		return nil, err
	}
	if proposals == nil {
		proposals = []models.Proposal{}
	}
	return &ProposalPage{Proposals: proposals, Total: total}, nil
}

// ListMine returns the caller's own proposals.
func (s *ProposalService) ListMine(ctx context.Context, caller access.Principal, filter store.ProposalFilter) (*ProposalPage, error) {
	if err := authorize(caller, access.OpListOwn, access.Facts{}); err != nil {
		return nil, err
	}
	return s.List(ctx, caller, filter)
}

// ListAssigned returns proposals the calling staff member is assigned to.
func (s *ProposalService) ListAssigned(ctx context.Context, caller access.Principal, filter store.ProposalFilter) (*ProposalPage, error) {
	if err := authorize(caller, access.OpListAssigned, access.Facts{}); err != nil {
		return nil, err
	}
	return s.List(ctx, caller, filter)
}

type FeedbackRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// AddFeedback appends a comment. The proposal status never changes.
func (s *ProposalService) AddFeedback(ctx context.Context, caller access.Principal, id uint, req *FeedbackRequest) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpAddFeedback, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	message := utils.SanitizeText(req.Message)
	if message == "" {
		return nil, response.NewValidation("Feedback message is required")
	}
	entry := &models.FeedbackEntry{
		ProposalID: p.ID,
		FromID:     caller.UserID,
		Message:    message,
		Type:       models.FeedbackType(strings.TrimSpace(req.Type)),
		CreatedAt:  s.now(),
	}
	if err := entry.Validate(); err != nil {
		return nil, response.NewValidation(err.Error())
	}
	if err := s.proposals.AppendFeedback(ctx, entry); err != nil {
		return nil, err
	}

	updated, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEvent{
		Module: "Proposals", Action: "Feedback",
		Message:    fmt.Sprintf("%s feedback added to proposal %d by %s", entry.Type, p.ID, caller.Name),
		UserID:     caller.UserID,
		ProposalID: p.ID,
	})
	s.events.Publish(newProposalEvent(updated, "Feedback", updated.Status, caller.Name))
	s.notifier.NotifyFeedback(ctx, updated.Author, updated.Title, caller.Name, message)
	return updated, nil
}

type AssignStaffRequest struct {
	StaffID models.FlexibleID `json:"staffId"`
	DueDate string            `json:"dueDate"`
}

var dueDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, response.NewValidation("Invalid due date")
}

// AssignStaff adds a staff member to the proposal. Repeating the call for the
// same staff member keeps a single assignment.
func (s *ProposalService) AssignStaff(ctx context.Context, caller access.Principal, id uint, req *AssignStaffRequest) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpAssignStaff, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	if req.StaffID == 0 {
		return nil, response.NewValidation("Staff member is required")
	}
	staff, err := s.users.FindByID(ctx, uint(req.StaffID))
	if err != nil {
		if response.IsKind(err, response.KindNotFound) {
			return nil, response.NewValidation("Invalid staff member")
		}
		return nil, err
	}
	if staff.Role != models.RoleStaff || !staff.IsActive {
		return nil, response.NewValidation("Invalid staff member")
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if due == nil {
		d := now.Add(models.DefaultAssignmentDue)
		due = &d
	}

	created, err := s.proposals.AddAssignment(ctx, &models.StaffAssignment{
		ProposalID:   p.ID,
		UserID:       staff.ID,
		AssignedDate: now,
		DueDate:      due,
	})
	if err != nil {
		return nil, err
	}

	from := p.Status
	fields := map[string]interface{}{"reviewer_id": caller.UserID}
	if created {
		fields["status"] = models.StatusAssignedToStaff
		fields["timeline_staff_assigned"] = now
	}
	if err := s.proposals.UpdateFields(ctx, p.ID, fields); err != nil {
		return nil, err
	}

	updated, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, caller, updated, from, updated.Status, "AssignStaff")

	authorName := ""
	if updated.Author != nil {
		authorName = updated.Author.Name
	}
	s.notifier.NotifyStaffAssignment(ctx, staff, updated.Title, authorName, caller.Name, due)
	s.notifier.NotifyStatusChange(ctx, updated.Author, updated.Title, from, models.StatusAssignedToStaff, caller.Name,
		fmt.Sprintf("Your proposal has been assigned to %s for further development.", staff.Name))
	return updated, nil
}

type UpdateStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// UpdateStatus records a reviewer decision.
func (s *ProposalService) UpdateStatus(ctx context.Context, caller access.Principal, id uint, req *UpdateStatusRequest) (*models.Proposal, error) {
	status := models.ProposalStatus(strings.TrimSpace(req.Status))
	if !status.ReviewerSettable() {
		return nil, response.NewValidation("Invalid status")
	}

	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpUpdateStatus, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	now := s.now()
	fields := map[string]interface{}{
		"status":      status,
		"reviewer_id": caller.UserID,
	}
	switch status {
	case models.StatusUnderReview:
		fields["timeline_review_started"] = now
	case models.StatusApproved, models.StatusRejected:
		fields["timeline_decision"] = now
	}

	comment := utils.SanitizeText(req.Comment)
	var note *models.FeedbackEntry
	if comment != "" {
		note = &models.FeedbackEntry{
			ProposalID: p.ID,
			FromID:     caller.UserID,
			Message:    comment,
			Type:       models.FeedbackApprovalNote,
			CreatedAt:  now,
		}
		if err := note.Validate(); err != nil {
			return nil, response.NewValidation(err.Error())
		}
	}

	// The note is only written once the decision itself is stored.
	if err := s.proposals.UpdateFields(ctx, p.ID, fields); err != nil {
		return nil, err
	}
	if note != nil {
		if err := s.proposals.AppendFeedback(ctx, note); err != nil {
			return nil, err
		}
	}

	updated, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, caller, updated, p.Status, status, "UpdateStatus")
	s.notifier.NotifyStatusChange(ctx, updated.Author, updated.Title, p.Status, status, caller.Name, comment)
	return updated, nil
}

type StaffReportRequest struct {
	Report          string `json:"report"`
	Progress        string `json:"progress"`
	Findings        string `json:"findings"`
	Recommendations string `json:"recommendations"`
	Status          string `json:"status"`
}

// composeStaffReport joins the supplied parts in a fixed order.
func composeStaffReport(req *StaffReportRequest) string {
	parts := []struct{ label, value string }{
		{"Progress", req.Progress},
		{"Findings", req.Findings},
		{"Recommendations", req.Recommendations},
		{"Full Report", req.Report},
	}
	var lines []string
	for _, part := range parts {
		if v := utils.SanitizeText(part.value); v != "" {
			lines = append(lines, part.label+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}

// reportStatus maps a staff report status onto the proposal status. A
// report marked completed hands the proposal back for staff review.
func reportStatus(s string) (models.ProposalStatus, bool) {
	if strings.TrimSpace(s) == "completed" {
		return models.StatusStaffReviewing, true
	}
	return "", false
}

// SubmitStaffReport records an assigned staff member's report.
func (s *ProposalService) SubmitStaffReport(ctx context.Context, caller access.Principal, id uint, req *StaffReportRequest) (*models.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, access.OpSubmitStaffReport, access.FactsFor(p, caller)); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Report) == "" && strings.TrimSpace(req.Progress) == "" {
		return nil, response.NewValidation("Report or progress update is required")
	}
	message := composeStaffReport(req)

	now := s.now()
	entry := &models.FeedbackEntry{
		ProposalID: p.ID,
		FromID:     caller.UserID,
		Message:    message,
		Type:       models.FeedbackStaffReport,
		CreatedAt:  now,
	}
	if err := entry.Validate(); err != nil {
		return nil, response.NewValidation(err.Error())
	}
	if err := s.proposals.AppendFeedback(ctx, entry); err != nil {
		return nil, err
	}

	if status, ok := reportStatus(req.Status); ok {
		err := s.proposals.UpdateFields(ctx, p.ID, map[string]interface{}{
			"status":                    status,
			"timeline_review_completed": now,
		})
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.proposals.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, caller, updated, p.Status, updated.Status, "StaffReport")
	return updated, nil
}
