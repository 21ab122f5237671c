package models

import "time"

// Session modes.
const (
	ModeStopwatch = "stopwatch"
	ModeTimer     = "timer"
	ModePomodoro  = "pomodoro"
)

// Pomodoro phases.
const (
	PhaseWork       = "work"
	PhaseShortBreak = "shortBreak"
	PhaseLongBreak  = "longBreak"
)

// SessionModel is a completed time session. Duration is always derived from
// start/end at write time, never supplied independently.
type SessionModel struct {
	Base
	UserID      string    `json:"-"           gorm:"index;not null"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"start_time"  gorm:"index;not null"`
	EndTime     time.Time `json:"end_time"    gorm:"not null"`
	Duration    int64     `json:"duration"    gorm:"not null"` // whole seconds
	Mode        string    `json:"mode"        gorm:"index;not null"`
	ProjectID   *string   `json:"project_id"  gorm:"index"` // nullable: projects may be deleted later
}

func (SessionModel) TableName() string { return "sessions" }
