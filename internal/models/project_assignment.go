package models

import "time"

// ProjectAssignment links a group member to a project they work on.
type ProjectAssignment struct {
	ProjectID  string `gorm:"primaryKey;type:uuid" json:"project_id"`
	UserID     string `gorm:"primaryKey;type:uuid" json:"user_id"`
	AssignedBy string `gorm:"type:uuid" json:"assigned_by"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
