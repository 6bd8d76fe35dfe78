package models

// Group is a named collaboration unit with members and projects.
// The creator always holds a permanent admin membership.
type Group struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatorID   string `gorm:"type:uuid;not null;index" json:"creator_id"`

	Creator     *User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Memberships []Membership `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"memberships,omitempty"`
	Projects    []Project    `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"projects,omitempty"`
}
