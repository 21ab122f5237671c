package timer

import (
	"errors"
	"strings"
	"time"

	"github.com/tracktide/core/internal/models"
)

// StartTimerDTO starts or replaces the active session.
type StartTimerDTO struct {
	Mode           string  `json:"mode"           binding:"required"`
	Description    string  `json:"description"`
	ProjectID      *string `json:"project_id"`
	TargetDuration *int64  `json:"target_duration"`
	PomodoroPhase  *string `json:"pomodoro_phase"`
	PomodoroCycle  *int    `json:"pomodoro_cycle"`
}

// UpdateTimerDTO mutates the running session in place. Nil fields are kept.
type UpdateTimerDTO struct {
	Description    *string `json:"description"`
	ProjectID      *string `json:"project_id"`
	TargetDuration *int64  `json:"target_duration"`
	PomodoroPhase  *string `json:"pomodoro_phase"`
	PomodoroCycle  *int    `json:"pomodoro_cycle"`
}

// projectSummary is the joined project shape pushed on the stream.
type projectSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// streamPayload is one event on the active-session stream.
type streamPayload struct {
	Active         bool            `json:"active"`
	ID             string          `json:"id,omitempty"`
	StartTime      *time.Time      `json:"startTime,omitempty"`
	Mode           string          `json:"mode,omitempty"`
	Description    *string         `json:"description,omitempty"`
	ProjectID      *string         `json:"projectId,omitempty"`
	TargetDuration *int64          `json:"targetDuration,omitempty"`
	PomodoroPhase  *string         `json:"pomodoroPhase,omitempty"`
	PomodoroCycle  *int            `json:"pomodoroCycle,omitempty"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	Project        *projectSummary `json:"project,omitempty"`
}

var (
	errNoActiveSession = errors.New("no active session")
	errInvalidMode     = errors.New("invalid session mode")
	errInvalidPhase    = errors.New("invalid pomodoro phase")
	errInvalidCycle    = errors.New("pomodoro cycle must not be negative")
	errProjectNotFound = errors.New("project not found")
	errInvalidDuration = errors.New("non-positive elapsed duration")
)

func validMode(mode string) bool {
	switch mode {
	case models.ModeStopwatch, models.ModeTimer, models.ModePomodoro:
		return true
	}
	return false
}

func validPhase(phase string) bool {
	switch phase {
	case models.PhaseWork, models.PhaseShortBreak, models.PhaseLongBreak:
		return true
	}
	return false
}

// normalizeDescription maps blank descriptions to absent so the register never
// stores empty strings. Applied uniformly on every write path.
func normalizeDescription(raw string) *string {
	d := strings.TrimSpace(raw)
	if d == "" {
		return nil
	}
	return &d
}
