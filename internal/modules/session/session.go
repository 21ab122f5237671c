package session

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/models"
	"github.com/tracktide/core/internal/pkg/pagination"
	"github.com/tracktide/core/internal/pkg/response"
	"gorm.io/gorm"
)

// UpdateSessionDTO edits a historical session. Mode is fixed at creation and
// cannot be changed after the fact.
type UpdateSessionDTO struct {
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	ProjectID   *string    `json:"project_id"`
}

type listFilter struct {
	From      *time.Time
	To        *time.Time
	Mode      string
	ProjectID string
}

var (
	errNotFound        = errors.New("session not found")
	errInvalidRange    = errors.New("end_time must be after start_time")
	errInvalidMode     = errors.New("invalid mode")
	errProjectNotFound = errors.New("project not found")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(userID string, f listFilter, q pagination.Query) ([]models.SessionModel, response.Pagination, error) {
	tx := s.db.Model(&models.SessionModel{}).Where("user_id = ?", userID)
	if f.From != nil {
		tx = tx.Where("start_time >= ?", *f.From)
	}
	if f.To != nil {
		tx = tx.Where("start_time < ?", *f.To)
	}
	if f.Mode != "" {
		tx = tx.Where("mode = ?", f.Mode)
	}
	if f.ProjectID != "" {
		tx = tx.Where("project_id = ?", f.ProjectID)
	}
	tx = tx.Order("start_time DESC")

	var items []models.SessionModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) GetByID(userID, id string) (*models.SessionModel, error) {
	var row models.SessionModel
	if err := s.db.First(&row, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &row, nil
}

// Update edits a historical session. Moving either endpoint recomputes the
// stored duration; the pair must still describe a positive span.
func (s *Service) Update(userID, id string, dto *UpdateSessionDTO) (*models.SessionModel, error) {
	row, err := s.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if dto.Description != nil {
		desc := normalizeDescription(*dto.Description)
		updates["description"] = desc
		row.Description = desc
	}
	if dto.ProjectID != nil {
		if *dto.ProjectID == "" {
			updates["project_id"] = nil
			row.ProjectID = nil
		} else {
			var count int64
			if err := s.db.Model(&models.ProjectModel{}).
				Where("id = ? AND user_id = ?", *dto.ProjectID, userID).Count(&count).Error; err != nil {
				return nil, err
			}
			if count == 0 {
				return nil, errProjectNotFound
			}
			updates["project_id"] = *dto.ProjectID
			row.ProjectID = dto.ProjectID
		}
	}

	start, end := row.StartTime, row.EndTime
	if dto.StartTime != nil {
		start = *dto.StartTime
	}
	if dto.EndTime != nil {
		end = *dto.EndTime
	}
	if dto.StartTime != nil || dto.EndTime != nil {
		if !end.After(start) {
			return nil, errInvalidRange
		}
		duration := int64(end.Sub(start) / time.Second)
		updates["start_time"] = start
		updates["end_time"] = end
		updates["duration"] = duration
		row.StartTime = start
		row.EndTime = end
		row.Duration = duration
	}

	if len(updates) == 0 {
		return row, nil
	}
	return row, s.db.Model(row).Updates(updates).Error
}

func (s *Service) Delete(userID, id string) error {
	res := s.db.Delete(&models.SessionModel{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func normalizeDescription(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/sessions", authMW)

	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

// GET /sessions?from=&to=&mode=&project=&page=&size=
func (h *Handler) list(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	items, pag, err := h.svc.List(middleware.CurrentUserID(c), f, pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateSessionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	response.NoContent(c)
}

func parseFilter(c *gin.Context) (listFilter, error) {
	var f listFilter
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("from must be RFC3339")
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("to must be RFC3339")
		}
		f.To = &t
	}
	if mode := c.Query("mode"); mode != "" {
		switch mode {
		case models.ModeStopwatch, models.ModeTimer, models.ModePomodoro:
			f.Mode = mode
		default:
			return f, errInvalidMode
		}
	}
	f.ProjectID = c.Query("project")
	return f, nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		response.NotFoundMsg(c, errNotFound.Error())
	case errors.Is(err, errProjectNotFound):
		response.NotFoundMsg(c, errProjectNotFound.Error())
	case errors.Is(err, errInvalidRange), errors.Is(err, errInvalidMode):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
