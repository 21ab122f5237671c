package settings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/models"
	"github.com/tracktide/core/internal/pkg/response"
	"gorm.io/gorm"
)

type UpdatePomodoroDTO struct {
	WorkDuration          *int  `json:"work_duration"            binding:"omitempty,min=1,max=600"`
	ShortBreakDuration    *int  `json:"short_break_duration"     binding:"omitempty,min=1,max=600"`
	LongBreakDuration     *int  `json:"long_break_duration"      binding:"omitempty,min=1,max=600"`
	CyclesBeforeLongBreak *int  `json:"cycles_before_long_break" binding:"omitempty,min=1,max=100"`
	AutoStartBreak        *bool `json:"auto_start_break"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// GetPomodoro returns the user's pomodoro settings, creating the row with
// defaults on first read.
func (s *Service) GetPomodoro(userID string) (*models.PomodoroSettingModel, error) {
	var row models.PomodoroSettingModel
	err := s.db.Where(models.PomodoroSettingModel{UserID: userID}).
		Attrs(models.PomodoroSettingModel{
			WorkDuration:          models.DefaultWorkDuration,
			ShortBreakDuration:    models.DefaultShortBreakDuration,
			LongBreakDuration:     models.DefaultLongBreakDuration,
			CyclesBeforeLongBreak: models.DefaultCyclesBeforeLong,
		}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) UpdatePomodoro(userID string, dto *UpdatePomodoroDTO) (*models.PomodoroSettingModel, error) {
	row, err := s.GetPomodoro(userID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if dto.WorkDuration != nil {
		updates["work_duration"] = *dto.WorkDuration
		row.WorkDuration = *dto.WorkDuration
	}
	if dto.ShortBreakDuration != nil {
		updates["short_break_duration"] = *dto.ShortBreakDuration
		row.ShortBreakDuration = *dto.ShortBreakDuration
	}
	if dto.LongBreakDuration != nil {
		updates["long_break_duration"] = *dto.LongBreakDuration
		row.LongBreakDuration = *dto.LongBreakDuration
	}
	if dto.CyclesBeforeLongBreak != nil {
		updates["cycles_before_long_break"] = *dto.CyclesBeforeLongBreak
		row.CyclesBeforeLongBreak = *dto.CyclesBeforeLongBreak
	}
	if dto.AutoStartBreak != nil {
		updates["auto_start_break"] = *dto.AutoStartBreak
		row.AutoStartBreak = *dto.AutoStartBreak
	}
	if len(updates) == 0 {
		return row, nil
	}
	return row, s.db.Model(row).Updates(updates).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/settings", authMW)

	g.GET("/pomodoro", h.getPomodoro)
	g.PUT("/pomodoro", h.updatePomodoro)
}

func (h *Handler) getPomodoro(c *gin.Context) {
	row, err := h.svc.GetPomodoro(middleware.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) updatePomodoro(c *gin.Context) {
	var dto UpdatePomodoroDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.svc.UpdatePomodoro(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c)
		return
	}
	response.InternalError(c, err)
}
