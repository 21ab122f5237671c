package timer

import (
	"errors"
	"time"

	"github.com/tracktide/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the session lifecycle controller: it owns start/update/stop of
// the active session and the promotion into history. Every successful write
// publishes exactly one change notification, after the write is committed.
type Service struct {
	active   ActiveSessionRepository
	projects ProjectRepository
	notifier *Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(active ActiveSessionRepository, projects ProjectRepository, notifier *Notifier, logger *zap.Logger) *Service {
	return &Service{
		active:   active,
		projects: projects,
		notifier: notifier,
		logger:   logger.Named("TimerService"),
		now:      time.Now,
	}
}

// Start creates or fully replaces the user's active session.
func (s *Service) Start(userID string, dto *StartTimerDTO) (*models.ActiveSessionModel, error) {
	if !validMode(dto.Mode) {
		return nil, errInvalidMode
	}
	if dto.PomodoroPhase != nil && !validPhase(*dto.PomodoroPhase) {
		return nil, errInvalidPhase
	}
	if dto.PomodoroCycle != nil && *dto.PomodoroCycle < 0 {
		return nil, errInvalidCycle
	}

	projectID, err := s.resolveProject(userID, dto.ProjectID)
	if err != nil {
		return nil, err
	}

	record := &models.ActiveSessionModel{
		UserID:         userID,
		StartTime:      s.now(),
		Mode:           dto.Mode,
		Description:    normalizeDescription(dto.Description),
		ProjectID:      projectID,
		TargetDuration: dto.TargetDuration,
		PomodoroPhase:  dto.PomodoroPhase,
	}
	if dto.PomodoroCycle != nil {
		record.PomodoroCycle = *dto.PomodoroCycle
	}

	if err := s.active.Upsert(record); err != nil {
		return nil, err
	}
	s.notifier.Publish(userID)
	return record, nil
}

// Update mutates the running session in place (phase/cycle changes and the
// like). The register still sees a whole-record replace.
func (s *Service) Update(userID string, dto *UpdateTimerDTO) (*models.ActiveSessionModel, error) {
	cur, err := s.active.Get(userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, errNoActiveSession
	}

	if dto.PomodoroPhase != nil {
		if !validPhase(*dto.PomodoroPhase) {
			return nil, errInvalidPhase
		}
		cur.PomodoroPhase = dto.PomodoroPhase
	}
	if dto.PomodoroCycle != nil {
		if *dto.PomodoroCycle < 0 {
			return nil, errInvalidCycle
		}
		cur.PomodoroCycle = *dto.PomodoroCycle
	}
	if dto.Description != nil {
		cur.Description = normalizeDescription(*dto.Description)
	}
	if dto.ProjectID != nil {
		projectID, err := s.resolveProject(userID, dto.ProjectID)
		if err != nil {
			return nil, err
		}
		cur.ProjectID = projectID
	}
	if dto.TargetDuration != nil {
		cur.TargetDuration = dto.TargetDuration
	}

	if err := s.active.Upsert(cur); err != nil {
		return nil, err
	}
	s.notifier.Publish(userID)
	return cur, nil
}

// Current reads the active session without side effects.
func (s *Service) Current(userID string) (*models.ActiveSessionModel, error) {
	cur, err := s.active.Get(userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, errNoActiveSession
	}
	return cur, nil
}

// Stop promotes the active session into a historical record. With non-positive
// elapsed time the slot is still cleared (a stuck timer is worse than a lost
// one) but no history is written and errInvalidDuration is returned.
func (s *Service) Stop(userID string) (*models.SessionModel, error) {
	cur, err := s.active.Get(userID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, errNoActiveSession
	}

	now := s.now()
	elapsed := int64(now.Sub(cur.StartTime) / time.Second)
	if elapsed <= 0 {
		if err := s.active.Delete(userID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("discard of zero-length session failed", zap.Error(err))
		}
		s.notifier.Publish(userID)
		return nil, errInvalidDuration
	}

	record := &models.SessionModel{
		UserID:      userID,
		Description: cur.Description,
		StartTime:   cur.StartTime,
		EndTime:     now,
		Duration:    elapsed,
		Mode:        cur.Mode,
		ProjectID:   cur.ProjectID,
	}
	if err := s.active.Promote(userID, record); err != nil {
		return nil, err
	}
	s.notifier.Publish(userID)
	return record, nil
}

// Cancel discards the active session without writing history.
func (s *Service) Cancel(userID string) error {
	if err := s.active.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNoActiveSession
		}
		return err
	}
	s.notifier.Publish(userID)
	return nil
}

func (s *Service) resolveProject(userID string, projectID *string) (*string, error) {
	if projectID == nil || *projectID == "" {
		return nil, nil
	}
	p, err := s.projects.GetOwned(userID, *projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errProjectNotFound
	}
	return projectID, nil
}
