package models

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// Field limits, in characters.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxDomainLength      = 100
	MaxFeedbackLength    = 2000
)

// Timeline holds the sparse milestone timestamps of a proposal.
type Timeline struct {
	Submitted       *time.Time `json:"submitted,omitempty"`
	ReviewStarted   *time.Time `json:"reviewStarted,omitempty"`
	StaffAssigned   *time.Time `json:"staffAssigned,omitempty"`
	ReviewCompleted *time.Time `json:"reviewCompleted,omitempty"`
	Decision        *time.Time `json:"decision,omitempty"`
}

// Proposal is a research proposal and the root of its lifecycle.
type Proposal struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Title         string            `gorm:"size:200;not null" json:"title"`
	Description   string            `gorm:"type:text;not null" json:"description"`
	Domain        string            `gorm:"size:100;not null;index" json:"domain"`
	Budget        float64           `gorm:"not null" json:"budget"`
	AuthorID      uint              `gorm:"index;not null" json:"authorId"`
	Author        *User             `gorm:"foreignKey:AuthorID" json:"-"`
	Status        ProposalStatus    `gorm:"size:30;default:draft;index" json:"status"`
	ReviewerID    *uint             `gorm:"index" json:"reviewerId,omitempty"`
	Reviewer      *User             `gorm:"foreignKey:ReviewerID" json:"-"`
	AssignedStaff []StaffAssignment `gorm:"foreignKey:ProposalID" json:"assignedStaff"`
	Feedback      []FeedbackEntry   `gorm:"foreignKey:ProposalID" json:"feedback"`
	Timeline      Timeline          `gorm:"embedded;embeddedPrefix:timeline_" json:"timeline"`
	Tags          StringList        `gorm:"type:text" json:"tags"`
	Priority      Priority          `gorm:"size:10;default:medium" json:"priority"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (Proposal) TableName() string { return "proposals" }

// MarshalJSON embeds author and reviewer as summaries.
func (p Proposal) MarshalJSON() ([]byte, error) {
	type proposal Proposal
	return json.Marshal(struct {
		proposal
		Author   *UserSummary `json:"author,omitempty"`
		Reviewer *UserSummary `json:"reviewer,omitempty"`
	}{proposal(p), p.Author.Summary(), p.Reviewer.Summary()})
}

// Normalize trims text fields and fills defaults.
func (p *Proposal) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Domain = strings.TrimSpace(p.Domain)
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.Tags == nil {
		p.Tags = StringList{}
	}
}

// Validate checks the schema constraints of the proposal.
func (p *Proposal) Validate() error {
	switch {
	case p.Title == "":
		return &ValidationError{Field: "title", Message: "Title is required"}
	case utf8.RuneCountInString(p.Title) > MaxTitleLength:
		return &ValidationError{Field: "title", Message: "Title cannot exceed 200 characters"}
	case p.Description == "":
		return &ValidationError{Field: "description", Message: "Description is required"}
	case utf8.RuneCountInString(p.Description) > MaxDescriptionLength:
		return &ValidationError{Field: "description", Message: "Description cannot exceed 5000 characters"}
	case p.Domain == "":
		return &ValidationError{Field: "domain", Message: "Domain is required"}
	case utf8.RuneCountInString(p.Domain) > MaxDomainLength:
		return &ValidationError{Field: "domain", Message: "Domain cannot exceed 100 characters"}
	case p.Budget < 0:
		return &ValidationError{Field: "budget", Message: "Budget cannot be negative"}
	case p.AuthorID == 0:
		return &ValidationError{Field: "author", Message: "Author is required"}
	case !p.Status.Valid():
		return &ValidationError{Field: "status", Message: "Invalid status"}
	case !p.Priority.Valid():
		return &ValidationError{Field: "priority", Message: "Priority must be one of low, medium, high, urgent"}
	}
	return nil
}

// BeforeCreate enforces the schema on insert.
func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	p.Normalize()
	return p.Validate()
}

// IsAssigned reports whether userID is among the assigned staff.
func (p *Proposal) IsAssigned(userID uint) bool {
	for _, a := range p.AssignedStaff {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// ValidationError is a schema violation on a model field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
