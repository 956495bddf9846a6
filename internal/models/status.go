package models

// ProposalStatus is a node of the proposal lifecycle.
type ProposalStatus string

const (
	StatusDraft           ProposalStatus = "draft"
	StatusSubmitted       ProposalStatus = "submitted"
	StatusUnderReview     ProposalStatus = "under_review"
	StatusAssignedToStaff ProposalStatus = "assigned_to_staff"
	StatusStaffReviewing  ProposalStatus = "staff_reviewing"
	StatusNeedsRevision   ProposalStatus = "needs_revision"
	StatusApproved        ProposalStatus = "approved"
	StatusRejected        ProposalStatus = "rejected"
	StatusCompleted       ProposalStatus = "completed"
)

// ProposalStatuses lists every status in lifecycle order.
var ProposalStatuses = []ProposalStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusAssignedToStaff,
	StatusStaffReviewing,
	StatusNeedsRevision,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
}

func (s ProposalStatus) Valid() bool {
	for _, v := range ProposalStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Editable reports whether the author may still change the proposal.
func (s ProposalStatus) Editable() bool {
	return s == StatusDraft || s == StatusNeedsRevision
}

// ReviewerSettable reports whether a reviewer may move a proposal to s.
func (s ProposalStatus) ReviewerSettable() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusNeedsRevision, StatusUnderReview:
		return true
	}
	return false
}

// FeedbackType classifies a feedback entry.
type FeedbackType string

const (
	FeedbackReviewer        FeedbackType = "reviewer_feedback"
	FeedbackStaffReport     FeedbackType = "staff_report"
	FeedbackRevisionRequest FeedbackType = "revision_request"
	FeedbackApprovalNote    FeedbackType = "approval_note"
)

func (t FeedbackType) Valid() bool {
	switch t {
	case FeedbackReviewer, FeedbackStaffReport, FeedbackRevisionRequest, FeedbackApprovalNote:
		return true
	}
	return false
}

// Priority of a proposal.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
