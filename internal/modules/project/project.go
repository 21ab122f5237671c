package project

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/models"
	"github.com/tracktide/core/internal/pkg/response"
	"gorm.io/gorm"
)

type CreateProjectDTO struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type UpdateProjectDTO struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

type projectResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func toResponse(p *models.ProjectModel) projectResponse {
	return projectResponse{
		ID: p.ID, Name: p.Name, Color: p.Color,
		Created: p.CreatedAt, Modified: p.UpdatedAt,
	}
}

var (
	errNotFound     = errors.New("project not found")
	errNameTaken    = errors.New("project name already exists")
	errProjectInUse = errors.New("project has recorded sessions")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) List(userID string) ([]models.ProjectModel, error) {
	var items []models.ProjectModel
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&items).Error
	return items, err
}

func (s *Service) GetByID(userID, id string) (*models.ProjectModel, error) {
	var p models.ProjectModel
	if err := s.db.First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(userID string, dto *CreateProjectDTO) (*models.ProjectModel, error) {
	var count int64
	if err := s.db.Model(&models.ProjectModel{}).
		Where("user_id = ? AND name = ?", userID, dto.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errNameTaken
	}
	p := models.ProjectModel{UserID: userID, Name: dto.Name, Color: dto.Color}
	return &p, s.db.Create(&p).Error
}

func (s *Service) Update(userID, id string, dto *UpdateProjectDTO) (*models.ProjectModel, error) {
	p, err := s.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if dto.Name != nil {
		updates["name"] = *dto.Name
		p.Name = *dto.Name
	}
	if dto.Color != nil {
		updates["color"] = *dto.Color
		p.Color = *dto.Color
	}
	if len(updates) == 0 {
		return p, nil
	}
	return p, s.db.Model(p).Updates(updates).Error
}

// Delete removes a project that no session references. Deleting a project
// out from under its history would orphan the report rows, so it is refused.
func (s *Service) Delete(userID, id string) error {
	if _, err := s.GetByID(userID, id); err != nil {
		return err
	}
	var count int64
	if err := s.db.Model(&models.SessionModel{}).
		Where("project_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errProjectInUse
	}
	return s.db.Delete(&models.ProjectModel{}, "id = ? AND user_id = ?", id, userID).Error
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/projects", authMW)

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]projectResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	response.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByID(middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, toResponse(p))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateProjectDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.Update(middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, toResponse(p))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, errNameTaken), errors.Is(err, errProjectInUse):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}
