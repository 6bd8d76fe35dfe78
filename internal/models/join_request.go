package models

import "time"

// Join-request lifecycle states. Pending is the only non-terminal state;
// approved and rejected never transition further.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// JoinRequest is a user-initiated, admin-reviewed application to join a group.
// Requester display attributes are denormalized at request time: later profile
// edits do not retroactively change how a pending request is presented.
type JoinRequest struct {
	BaseModel

	GroupID string `gorm:"type:uuid;not null;index" json:"group_id"`
	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`

	Username    string `gorm:"not null" json:"username"`
	Email       string `gorm:"not null" json:"email"`
	DisplayName string `json:"display_name"`
	Message     string `gorm:"size:500" json:"message"`

	Status      string     `gorm:"size:16;not null;default:pending;index" json:"status"`
	RespondedAt *time.Time `json:"responded_at"`
	RespondedBy string     `gorm:"type:uuid" json:"responded_by,omitempty"`
}
