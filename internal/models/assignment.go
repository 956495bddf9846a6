package models

import (
	"encoding/json"
	"time"
)

// DefaultAssignmentDue is applied when a reviewer assigns staff without a due date.
const DefaultAssignmentDue = 14 * 24 * time.Hour

// StaffAssignment links a staff member to a proposal. The unique index keeps
// one row per (proposal, user).
type StaffAssignment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ProposalID     uint       `gorm:"uniqueIndex:idx_assignment_proposal_user;not null" json:"proposalId"`
	UserID         uint       `gorm:"uniqueIndex:idx_assignment_proposal_user;index;not null" json:"userId"`
	User           *User      `gorm:"foreignKey:UserID" json:"-"`
	AssignedDate   time.Time  `json:"assignedDate"`
	DueDate        *time.Time `gorm:"index" json:"dueDate,omitempty"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`
}

func (StaffAssignment) TableName() string { return "proposal_staff_assignments" }

func (a StaffAssignment) MarshalJSON() ([]byte, error) {
	type assignment StaffAssignment
	return json.Marshal(struct {
		assignment
		User *UserSummary `json:"user,omitempty"`
	}{assignment(a), a.User.Summary()})
}
