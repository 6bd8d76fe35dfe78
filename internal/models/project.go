package models

// Project tracks a unit of research work within a group.
type Project struct {
	BaseModel

	GroupID     string `gorm:"type:uuid;not null;index" json:"group_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	CreatorID   string `gorm:"type:uuid;not null" json:"creator_id"`

	ChecklistItems []ChecklistItem     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"checklist_items,omitempty"`
	Assignments    []ProjectAssignment `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
}
