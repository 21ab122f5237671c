package models

// Default pomodoro settings, applied on first read.
const (
	DefaultWorkDuration       = 25 // minutes
	DefaultShortBreakDuration = 5
	DefaultLongBreakDuration  = 15
	DefaultCyclesBeforeLong   = 4
)

// PomodoroSettingModel is the per-user pomodoro configuration row.
type PomodoroSettingModel struct {
	Base
	UserID                string `json:"-"                        gorm:"uniqueIndex;not null"`
	WorkDuration          int    `json:"work_duration"            gorm:"not null"` // minutes
	ShortBreakDuration    int    `json:"short_break_duration"     gorm:"not null"`
	LongBreakDuration     int    `json:"long_break_duration"      gorm:"not null"`
	CyclesBeforeLongBreak int    `json:"cycles_before_long_break" gorm:"not null"`
	AutoStartBreak        bool   `json:"auto_start_break"`
}

func (PomodoroSettingModel) TableName() string { return "pomodoro_settings" }
