package models

import (
	"strings"
	"time"
)

// Roles understood by the API. Only RoleAdmin may manage other users and the field list.
const (
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
	RoleAuthor     = "author"
	RoleResearcher = "researcher"
	RoleGuest      = "guest"
)

// Roles lists every assignable role.
var Roles = []string{RoleAdmin, RoleEditor, RoleAuthor, RoleResearcher, RoleGuest}

// User is an account that profile settings hang off.
type User struct {
	BaseModel
	Email    string `gorm:"uniqueIndex;not null" json:"o:email"`
	Name     string `gorm:"not null" json:"o:name"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"not null;default:guest;index" json:"o:role"`
	IsActive bool   `gorm:"default:true" json:"o:is_active"`

	LastLoginAt *time.Time `json:"o:last_login,omitempty"`
}

// IsAdmin reports whether the user can manage other accounts.
func (u *User) IsAdmin() bool {
	return u != nil && strings.EqualFold(u.Role, RoleAdmin)
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, candidate := range Roles {
		if candidate == role {
			return true
		}
	}
	return false
}
