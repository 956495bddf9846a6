package access

import (
	"testing"

	"github.com/naccer/portal/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

var allOperations = []Operation{
	OpCreateProposal, OpUpdateProposal, OpReadProposal, OpListProposals,
	OpListOwn, OpListAssigned, OpAddFeedback, OpAssignStaff, OpUpdateStatus,
	OpSubmitStaffReport, OpListStaff, OpAISuggestions, OpInvite, OpViewStats,
}

func TestRoleGrants_Table(t *testing.T) {
	granted := map[models.Role][]Operation{
		models.RoleUser: {
			OpCreateProposal, OpUpdateProposal, OpReadProposal, OpListProposals,
			OpListOwn, OpInvite, OpViewStats,
		},
		models.RoleReviewer: {
			OpReadProposal, OpListProposals, OpAddFeedback, OpAssignStaff,
			OpUpdateStatus, OpListStaff, OpAISuggestions, OpInvite, OpViewStats,
		},
		models.RoleStaff: {
			OpReadProposal, OpListProposals, OpListAssigned, OpAddFeedback,
			OpSubmitStaffReport, OpAISuggestions, OpInvite, OpViewStats,
		},
	}

	for _, role := range models.Roles {
		allowed := make(map[Operation]bool)
		for _, op := range granted[role] {
			allowed[op] = true
		}
		for _, op := range allOperations {
			t.Run(string(role)+"/"+string(op), func(t *testing.T) {
				assert.Equal(t, allowed[op], RoleGrants(role, op))
			})
		}
	}
}

func TestRoleGrants_UnknownRoleDenied(t *testing.T) {
	for _, op := range allOperations {
		assert.False(t, RoleGrants("admin", op), op)
		assert.False(t, RoleGrants("", op), op)
	}
}

func TestDecide(t *testing.T) {
	author := Principal{UserID: 1, Role: models.RoleUser}
	otherUser := Principal{UserID: 2, Role: models.RoleUser}
	reviewer := Principal{UserID: 3, Role: models.RoleReviewer}
	staff := Principal{UserID: 4, Role: models.RoleStaff}

	submitted := Facts{AuthorID: 1, Status: models.StatusSubmitted}
	draft := Facts{AuthorID: 1, Status: models.StatusDraft}
	assigned := Facts{AuthorID: 1, Status: models.StatusAssignedToStaff, Assigned: true}

	tests := []struct {
		name    string
		caller  Principal
		op      Operation
		facts   Facts
		allowed bool
	}{
		{"author reads own", author, OpReadProposal, submitted, true},
		{"author reads own draft", author, OpReadProposal, draft, true},
		{"other user reads", otherUser, OpReadProposal, submitted, false},
		{"author updates own", author, OpUpdateProposal, submitted, true},
		{"other user updates", otherUser, OpUpdateProposal, submitted, false},
		{"user adds feedback", author, OpAddFeedback, submitted, false},
		{"user assigns staff", author, OpAssignStaff, submitted, false},
		{"reviewer reads submitted", reviewer, OpReadProposal, submitted, true},
		{"reviewer reads draft", reviewer, OpReadProposal, draft, false},
		{"reviewer adds feedback", reviewer, OpAddFeedback, submitted, true},
		{"reviewer assigns staff", reviewer, OpAssignStaff, submitted, true},
		{"reviewer updates status", reviewer, OpUpdateStatus, submitted, true},
		{"reviewer updates draft status", reviewer, OpUpdateStatus, draft, false},
		{"reviewer updates proposal", reviewer, OpUpdateProposal, submitted, false},
		{"reviewer submits staff report", reviewer, OpSubmitStaffReport, assigned, false},
		{"unassigned staff reads", staff, OpReadProposal, submitted, false},
		{"assigned staff reads", staff, OpReadProposal, assigned, true},
		{"unassigned staff feedback", staff, OpAddFeedback, submitted, false},
		{"assigned staff feedback", staff, OpAddFeedback, assigned, true},
		{"assigned staff report", staff, OpSubmitStaffReport, assigned, true},
		{"unassigned staff report", staff, OpSubmitStaffReport, submitted, false},
		{"staff updates status", staff, OpUpdateStatus, assigned, false},
		{"staff assigns staff", staff, OpAssignStaff, assigned, false},
		{"staff creates", staff, OpCreateProposal, Facts{}, false},
		{"reviewer creates", reviewer, OpCreateProposal, Facts{}, false},
		{"user creates", author, OpCreateProposal, Facts{}, true},
		{"anyone invites", staff, OpInvite, Facts{}, true},
		{"unknown role", Principal{UserID: 9, Role: "admin"}, OpReadProposal, submitted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.caller, tt.op, tt.facts)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !d.Allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestFactsFor(t *testing.T) {
	p := &models.Proposal{
		AuthorID:      1,
		Status:        models.StatusStaffReviewing,
		AssignedStaff: []models.StaffAssignment{{UserID: 4}},
	}

	f := FactsFor(p, Principal{UserID: 4, Role: models.RoleStaff})
	assert.Equal(t, uint(1), f.AuthorID)
	assert.Equal(t, models.StatusStaffReviewing, f.Status)
	assert.True(t, f.Assigned)

	assert.False(t, FactsFor(p, Principal{UserID: 5, Role: models.RoleStaff}).Assigned)
}
