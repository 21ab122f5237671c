package report

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/models"
	"github.com/tracktide/core/internal/pkg/response"
	"gorm.io/gorm"
)

const defaultRangeDays = 7

type reportQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to"   time_format:"2006-01-02"`
}

type projectReport struct {
	ProjectID     *string `json:"project_id"`
	ProjectName   string  `json:"project_name"`
	ProjectColor  string  `json:"project_color"`
	TotalDuration int64   `json:"total_duration"`
	SessionCount  int64   `json:"session_count"`
}

type reportResponse struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalDuration int64           `json:"total_duration"`
	SessionCount  int64           `json:"session_count"`
	Projects      []projectReport `json:"projects"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Summary aggregates completed sessions per project over [from, to). Sessions
// without a project land in a single nil-project bucket. Project names are
// resolved in a second query so deleted-then-orphaned links still report.
func (s *Service) Summary(userID string, from, to time.Time, mode string) (*reportResponse, error) {
	tx := s.db.Model(&models.SessionModel{}).
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, from, to)
	if mode != "" {
		tx = tx.Where("mode = ?", mode)
	}

	var rows []projectReport
	err := tx.Select("project_id, COALESCE(SUM(duration), 0) AS total_duration, COUNT(*) AS session_count").
		Group("project_id").
		Order("total_duration DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	if err := s.fillProjectNames(rows); err != nil {
		return nil, err
	}

	out := &reportResponse{From: from, To: to, Projects: rows}
	for _, r := range rows {
		out.TotalDuration += r.TotalDuration
		out.SessionCount += r.SessionCount
	}
	if out.Projects == nil {
		out.Projects = []projectReport{}
	}
	return out, nil
}

func (s *Service) fillProjectNames(rows []projectReport) error {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.ProjectID != nil {
			ids = append(ids, *r.ProjectID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var projects []models.ProjectModel
	if err := s.db.Where("id IN ?", ids).Find(&projects).Error; err != nil {
		return err
	}
	byID := make(map[string]*models.ProjectModel, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	for i := range rows {
		if rows[i].ProjectID == nil {
			continue
		}
		if p, ok := byID[*rows[i].ProjectID]; ok {
			rows[i].ProjectName = p.Name
			rows[i].ProjectColor = p.Color
		}
	}
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/reports", authMW)

	g.GET("", h.summary)
	g.GET("/pomodoro", h.pomodoro)
}

// GET /reports?from=2026-08-01&to=2026-08-29
func (h *Handler) summary(c *gin.Context) {
	h.respond(c, "")
}

// GET /reports/pomodoro — same aggregation over pomodoro-mode sessions only
func (h *Handler) pomodoro(c *gin.Context) {
	h.respond(c, models.ModePomodoro)
}

func (h *Handler) respond(c *gin.Context, mode string) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	from, to := resolveRange(q)
	if !to.After(from) {
		response.BadRequest(c, "to must be after from")
		return
	}

	out, err := h.svc.Summary(middleware.CurrentUserID(c), from, to, mode)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}

// resolveRange defaults to the trailing week; a bare `to` is treated as
// exclusive end-of-day so "to=2026-08-29" includes that whole day.
func resolveRange(q reportQuery) (time.Time, time.Time) {
	now := time.Now()
	to := now
	if q.To != nil {
		to = q.To.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -defaultRangeDays)
	if q.From != nil {
		from = *q.From
	}
	return from, to
}
