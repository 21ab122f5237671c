package timer

import (
	"errors"

	"github.com/tracktide/core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActiveSessionRepository is the per-user single-slot register.
type ActiveSessionRepository interface {
	// Get returns the slot or (nil, nil) when absent.
	Get(userID string) (*models.ActiveSessionModel, error)
	// Upsert creates or fully replaces the slot for the record's user.
	Upsert(record *models.ActiveSessionModel) error
	// Delete clears the slot. Returns gorm.ErrRecordNotFound when absent.
	Delete(userID string) error
	// Promote creates the historical record and clears the slot as one
	// transaction. If either half fails, neither takes effect.
	Promote(userID string, record *models.SessionModel) error
}

// ProjectRepository resolves ownership-scoped project lookups.
type ProjectRepository interface {
	// GetOwned returns the project or (nil, nil) when it does not exist or
	// belongs to another user.
	GetOwned(userID, projectID string) (*models.ProjectModel, error)
}

type activeSessionRepo struct {
	db *gorm.DB
}

// NewActiveSessionRepository returns the GORM-backed register.
func NewActiveSessionRepository(db *gorm.DB) ActiveSessionRepository {
	return &activeSessionRepo{db: db}
}

func (r *activeSessionRepo) Get(userID string) (*models.ActiveSessionModel, error) {
	var row models.ActiveSessionModel
	err := r.db.Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *activeSessionRepo) Upsert(record *models.ActiveSessionModel) error {
	// Whole-record assignment on the user_id unique index: two concurrent
	// writers serialize to one full payload, never a field-level merge.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_time", "mode", "description", "project_id",
			"target_duration", "pomodoro_phase", "pomodoro_cycle", "updated_at",
		}),
	}).Create(record).Error
}

func (r *activeSessionRepo) Delete(userID string) error {
	res := r.db.Where("user_id = ?", userID).Delete(&models.ActiveSessionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *activeSessionRepo) Promote(userID string, record *models.SessionModel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", userID).Delete(&models.ActiveSessionModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepository returns the GORM-backed project lookup.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) GetOwned(userID, projectID string) (*models.ProjectModel, error) {
	var row models.ProjectModel
	err := r.db.Where("id = ? AND user_id = ?", projectID, userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
