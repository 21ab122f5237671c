package models

// ProjectModel groups sessions under a named, color-tagged bucket per user.
type ProjectModel struct {
	Base
	UserID string `json:"-"     gorm:"index;not null"`
	Name   string `json:"name"  gorm:"not null"`
	Color  string `json:"color"`
}

func (ProjectModel) TableName() string { return "projects" }
