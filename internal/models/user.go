package models

import "time"

// User represents a portal account. Accounts are deactivated, never deleted.
type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string     `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role           Role       `gorm:"size:20;default:user;index" json:"role"`
	Department     string     `gorm:"size:100" json:"department"`
	Expertise      StringList `gorm:"type:text" json:"expertise"`
	ProfilePicture string     `gorm:"size:500" json:"profilePicture"`
	IsActive       bool       `gorm:"default:true" json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserSummary is the embedded form of a user inside proposals and feedback.
type UserSummary struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Department string     `json:"department,omitempty"`
	Expertise  StringList `json:"expertise,omitempty"`
}

// Summary returns nil for a nil user.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		Expertise:  u.Expertise,
	}
}
