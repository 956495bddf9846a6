package models

import "time"

// Invitation records a collaboration invite email sent for a proposal.
type Invitation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProposalID    uint      `gorm:"index;not null" json:"proposalId"`
	ProposalTitle string    `gorm:"size:200" json:"proposalTitle"`
	Email         string    `gorm:"size:255;not null" json:"email"`
	Role          string    `gorm:"size:100;not null" json:"role"`
	Message       string    `gorm:"type:text" json:"message,omitempty"`
	InvitedByID   uint      `gorm:"index;not null" json:"invitedById"`
	InvitedBy     *User     `gorm:"foreignKey:InvitedByID" json:"-"`
	Status        string    `gorm:"size:20;default:sent" json:"status"`
	EmailID       string    `gorm:"size:100" json:"emailId"`
	Mode          string    `gorm:"size:30" json:"mode"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Invitation) TableName() string { return "collaboration_invitations" }
