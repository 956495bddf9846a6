package models

import "time"

// SystemLog is an audit record of a write request or lifecycle event.
type SystemLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Level      string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module     string    `gorm:"size:100;index" json:"module"`
	Action     string    `gorm:"size:200;index" json:"action"`
	Message    string    `gorm:"type:text" json:"message"`
	UserID     *uint     `json:"userId"`
	ProposalID *uint     `gorm:"index" json:"proposalId,omitempty"`
	IP         string    `gorm:"size:50" json:"ip"`
	UserAgent  string    `gorm:"size:500" json:"userAgent"`
	Extra      string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (SystemLog) TableName() string { return "system_logs" }
