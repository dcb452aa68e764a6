package model

import "time"

// Agent is the identity a login stub hands out.
type Agent struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// Roles.
const (
	RoleField  = "field"
	RoleOffice = "office"
)

// ValidRole reports whether role is a known agent role.
func ValidRole(role string) bool {
	return role == RoleField || role == RoleOffice
}
