package models

// ChecklistItem is a single trackable step on a project checklist.
type ChecklistItem struct {
	BaseModel

	ProjectID string `gorm:"type:uuid;not null;index" json:"project_id"`
	Title     string `gorm:"not null" json:"title"`
	Done      bool   `gorm:"default:false" json:"done"`
	Position  int    `gorm:"default:0" json:"position"`
}
