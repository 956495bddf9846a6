package models

import "fmt"

// Role is the closed set of portal roles.
type Role string

const (
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
	RoleStaff    Role = "staff"
)

// Roles lists every role, in display order.
var Roles = []Role{RoleUser, RoleReviewer, RoleStaff}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleReviewer, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole returns RoleUser for an empty string.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
