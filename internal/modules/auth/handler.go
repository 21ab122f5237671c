package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/models"
	"github.com/tracktide/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/auth")
	g.POST("/login", h.login)
	g.POST("/register", h.register)

	a := g.Group("", authMW)
	a.GET("/tokens", h.listTokens)
	a.POST("/tokens", h.createToken)
	a.DELETE("/tokens/:id", h.revokeToken)

	rg.GET("/user", authMW, h.profile)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, _, err := h.svc.Login(dto.Username, dto.Password)
	if err != nil {
		if errors.Is(err, errUserNotFound) || errors.Is(err, errWrongPassword) {
			// Same response for both; no account enumeration.
			response.UnprocessableEntity(c, "invalid username or password")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, loginResponse{Token: token})
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(&dto)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			response.Conflict(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, u)
}

// GET /user
func (h *Handler) profile(c *gin.Context) {
	u, err := h.svc.GetByID(middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, u)
}

func (h *Handler) listTokens(c *gin.Context) {
	tokens, err := h.svc.ListTokens(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]tokenResponse, 0, len(tokens))
	for i := range tokens {
		out = append(out, toTokenResponse(&tokens[i]))
	}
	response.OK(c, out)
}

func (h *Handler) createToken(c *gin.Context) {
	var dto CreateTokenDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.svc.CreateToken(middleware.CurrentUserID(c), dto.Name)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, toTokenResponse(token))
}

func (h *Handler) revokeToken(c *gin.Context) {
	err := h.svc.RevokeToken(middleware.CurrentUserID(c), c.Param("id"))
	switch {
	case err == nil:
		response.NoContent(c)
	case errors.Is(err, errTokenNotFound):
		response.NotFound(c)
	case errors.Is(err, errTokenAlreadyDead):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

func toTokenResponse(t *models.AccessToken) tokenResponse {
	return tokenResponse{
		ID:         t.ID,
		Name:       t.Name,
		Token:      t.Token,
		LastUsedAt: t.LastUsedAt,
		RevokedAt:  t.RevokedAt,
		Created:    t.CreatedAt,
	}
}
