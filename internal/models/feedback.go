package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

// ErrFeedbackImmutable is returned when a stored feedback entry is modified.
var ErrFeedbackImmutable = errors.New("feedback entries are append-only")

// FeedbackEntry is one append-only comment on a proposal.
type FeedbackEntry struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	ProposalID uint         `gorm:"index;not null" json:"proposalId"`
	FromID     uint         `gorm:"index;not null" json:"fromId"`
	From       *User        `gorm:"foreignKey:FromID" json:"-"`
	Message    string       `gorm:"type:text;not null" json:"message"`
	Type       FeedbackType `gorm:"size:30;default:reviewer_feedback" json:"type"`
	CreatedAt  time.Time    `gorm:"index" json:"createdAt"`
}

func (FeedbackEntry) TableName() string { return "proposal_feedback" }

func (f FeedbackEntry) MarshalJSON() ([]byte, error) {
	type entry FeedbackEntry
	return json.Marshal(struct {
		entry
		From *UserSummary `json:"from,omitempty"`
	}{entry(f), f.From.Summary()})
}

func (f *FeedbackEntry) Validate() error {
	f.Message = strings.TrimSpace(f.Message)
	if f.Type == "" {
		f.Type = FeedbackReviewer
	}
	switch {
	case f.Message == "":
		return &ValidationError{Field: "message", Message: "Feedback message is required"}
	case utf8.RuneCountInString(f.Message) > MaxFeedbackLength:
		return &ValidationError{Field: "message", Message: "Feedback cannot exceed 2000 characters"}
	case !f.Type.Valid():
		return &ValidationError{Field: "type", Message: "Invalid feedback type"}
	case f.ProposalID == 0 || f.FromID == 0:
		return &ValidationError{Field: "from", Message: "Feedback must reference a proposal and an author"}
	}
	return nil
}

func (f *FeedbackEntry) BeforeCreate(tx *gorm.DB) error {
	return f.Validate()
}

func (f *FeedbackEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrFeedbackImmutable
}

func (f *FeedbackEntry) BeforeDelete(tx *gorm.DB) error {
	return ErrFeedbackImmutable
}
