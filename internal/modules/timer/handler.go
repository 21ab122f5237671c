package timer

import (
	"context"
	"errors"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc      *Service
	stream   *StreamServer
	shutdown context.Context
}

// NewHandler wires the timer endpoints. shutdown ends open streams when the
// process stops; pass context.Background() to tie streams to clients only.
func NewHandler(svc *Service, stream *StreamServer, shutdown context.Context) *Handler {
	if shutdown == nil {
		shutdown = context.Background()
	}
	return &Handler{svc: svc, stream: stream, shutdown: shutdown}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/timer", authMW)

	g.GET("", h.current)
	g.POST("", h.start)
	g.PATCH("", h.update)
	g.POST("/stop", h.stop)
	g.DELETE("", h.cancel)
	g.GET("/stream", h.streamEvents)
}

// GET /timer
func (h *Handler) current(c *gin.Context) {
	cur, err := h.svc.Current(middleware.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, cur)
}

// POST /timer — start or replace the active session
func (h *Handler) start(c *gin.Context) {
	var dto StartTimerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cur, err := h.svc.Start(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, cur)
}

// PATCH /timer — in-place update (pomodoro phase/cycle etc.)
func (h *Handler) update(c *gin.Context) {
	var dto UpdateTimerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cur, err := h.svc.Update(middleware.CurrentUserID(c), &dto)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, cur)
}

// POST /timer/stop — promote into a historical session
func (h *Handler) stop(c *gin.Context) {
	record, err := h.svc.Stop(middleware.CurrentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, record)
}

// DELETE /timer — discard without history
func (h *Handler) cancel(c *gin.Context) {
	if err := h.svc.Cancel(middleware.CurrentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	response.NoContent(c)
}

// GET /timer/stream — long-lived SSE push of the timer state
func (h *Handler) streamEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		select {
		case <-h.shutdown.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	userID := middleware.CurrentUserID(c)
	err := h.stream.Serve(ctx, userID, func(payload interface{}) error {
		if err := sse.Encode(c.Writer, sse.Event{Event: "timer", Data: payload}); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		// Only the initial read can fail here; the stream never opened.
		response.InternalError(c, err)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNoActiveSession):
		response.NotFoundMsg(c, "no active session")
	case errors.Is(err, errProjectNotFound):
		response.NotFoundMsg(c, "project not found")
	case errors.Is(err, errInvalidMode), errors.Is(err, errInvalidPhase), errors.Is(err, errInvalidCycle):
		response.BadRequest(c, err.Error())
	case errors.Is(err, errInvalidDuration):
		response.UnprocessableEntity(c, "session discarded: elapsed time was not positive")
	default:
		h.svc.logger.Error("timer operation failed", zap.Error(err))
		response.InternalError(c, err)
	}
}
