package models

import "time"

// RefreshToken stores the SHA-256 of an opaque refresh token. Rotation marks
// the old row revoked and links it to its replacement.
type RefreshToken struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"userId"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `gorm:"index;not null" json:"expiresAt"`
	RevokedAt         *time.Time `gorm:"index" json:"revokedAt,omitempty"`
	ReplacedByTokenID *uint      `gorm:"index" json:"replacedByTokenId,omitempty"`
	CreatedByIP       string     `gorm:"size:64" json:"createdByIp,omitempty"`
	UserAgent         string     `gorm:"size:255" json:"userAgent,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }
