// Package access decides who may perform which proposal operation.
//
// Decisions are pure: they depend only on the caller's role and user id and
// on facts about the target proposal, never on request or storage state.
package access

import (
	"fmt"

	"github.com/naccer/portal/backend/internal/models"
)

// Operation is an action a caller asks to perform.
type Operation string

const (
	OpCreateProposal    Operation = "create_proposal"
	OpUpdateProposal    Operation = "update_proposal"
	OpReadProposal      Operation = "read_proposal"
	OpListProposals     Operation = "list_proposals"
	OpListOwn           Operation = "list_own_proposals"
	OpListAssigned      Operation = "list_assigned_proposals"
	OpAddFeedback       Operation = "add_feedback"
	OpAssignStaff       Operation = "assign_staff"
	OpUpdateStatus      Operation = "update_status"
	OpSubmitStaffReport Operation = "submit_staff_report"
	OpListStaff         Operation = "list_staff"
	OpAISuggestions     Operation = "ai_suggestions"
	OpInvite            Operation = "invite_collaborator"
	OpViewStats         Operation = "view_stats"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uint
	Role   models.Role
	Name   string
	Email  string
}

// Facts describe the target proposal. The zero value means no target.
type Facts struct {
	AuthorID uint
	Status   models.ProposalStatus
	Assigned bool // caller is among the assigned staff
}

// FactsFor extracts the facts of p relevant to caller.
func FactsFor(p *models.Proposal, caller Principal) Facts {
	return Facts{
		AuthorID: p.AuthorID,
		Status:   p.Status,
		Assigned: p.IsAssigned(caller.UserID),
	}
}

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// RoleGrants reports whether role may attempt op at all, before any
// ownership or assignment facts are considered.
func RoleGrants(role models.Role, op Operation) bool {
	switch role {
	case models.RoleUser:
		switch op {
		case OpCreateProposal, OpUpdateProposal, OpReadProposal, OpListProposals,
			OpListOwn, OpInvite, OpViewStats:
			return true
		}
	case models.RoleReviewer:
		switch op {
		case OpReadProposal, OpListProposals, OpAddFeedback, OpAssignStaff,
			OpUpdateStatus, OpListStaff, OpAISuggestions, OpInvite, OpViewStats:
			return true
		}
	case models.RoleStaff:
		switch op {
		case OpReadProposal, OpListProposals, OpListAssigned, OpAddFeedback,
			OpSubmitStaffReport, OpAISuggestions, OpInvite, OpViewStats:
			return true
		}
	}
	return false
}

// Decide applies the full rule for op on a proposal described by facts.
func Decide(caller Principal, op Operation, facts Facts) Decision {
	if !RoleGrants(caller.Role, op) {
		return deny("Role %s is not authorized to perform this action", roleName(caller.Role))
	}

	switch caller.Role {
	case models.RoleUser:
		return decideUser(caller, op, facts)
	case models.RoleReviewer:
		return decideReviewer(op, facts)
	case models.RoleStaff:
		return decideStaff(op, facts)
	}
	return deny("Unknown role")
}

func decideUser(caller Principal, op Operation, facts Facts) Decision {
	switch op {
	case OpUpdateProposal:
		if facts.AuthorID != caller.UserID {
			return deny("Not authorized to update this proposal")
		}
	case OpReadProposal:
		if facts.AuthorID != caller.UserID {
			return deny("Not authorized to view this proposal")
		}
	}
	return allow()
}

func decideReviewer(op Operation, facts Facts) Decision {
	switch op {
	case OpReadProposal, OpAddFeedback, OpAssignStaff, OpUpdateStatus, OpAISuggestions:
		if facts.Status == models.StatusDraft {
			return deny("Draft proposals are private to their author")
		}
	}
	return allow()
}

func decideStaff(op Operation, facts Facts) Decision {
	switch op {
	case OpReadProposal:
		if !facts.Assigned {
			return deny("Not authorized to view this proposal")
		}
	case OpAddFeedback, OpSubmitStaffReport, OpAISuggestions:
		if !facts.Assigned {
			return deny("You are not assigned to this proposal")
		}
	}
	return allow()
}

func roleName(r models.Role) string {
	if r == "" {
		return "unknown"
	}
	return string(r)
}
