package models

import "time"

// Membership roles within a group.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership grants a user standing and a role within a group.
// A user holds at most one membership per group.
type Membership struct {
	GroupID string `gorm:"primaryKey;type:uuid" json:"group_id"`
	UserID  string `gorm:"primaryKey;type:uuid" json:"user_id"`
	Role    string `gorm:"size:16;not null;default:member" json:"role"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
