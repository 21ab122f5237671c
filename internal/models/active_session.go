package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActiveSessionModel is the single in-flight timer slot per user. It carries no
// soft-delete column: the row is hard-deleted on promotion or cancellation so
// the user_id unique index is free for the next start. Elapsed time is never
// stored; readers derive it from start_time.
type ActiveSessionModel struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"modified"`
	UserID         string    `json:"-"               gorm:"uniqueIndex;not null"`
	StartTime      time.Time `json:"start_time"      gorm:"not null"`
	Mode           string    `json:"mode"            gorm:"not null"`
	Description    *string   `json:"description"`
	ProjectID      *string   `json:"project_id"`
	TargetDuration *int64    `json:"target_duration"` // seconds, timer/pomodoro only
	PomodoroPhase  *string   `json:"pomodoro_phase"`
	PomodoroCycle  int       `json:"pomodoro_cycle"  gorm:"not null;default:0"`
}

func (ActiveSessionModel) TableName() string { return "active_sessions" }

func (a *ActiveSessionModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
