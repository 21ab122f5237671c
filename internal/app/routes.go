package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tracktide/core/internal/middleware"
	"github.com/tracktide/core/internal/modules/auth"
	"github.com/tracktide/core/internal/modules/project"
	"github.com/tracktide/core/internal/modules/report"
	"github.com/tracktide/core/internal/modules/session"
	"github.com/tracktide/core/internal/modules/settings"
	"github.com/tracktide/core/internal/modules/timer"
	"github.com/tracktide/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(ctx context.Context) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	api := r.Group(apiPrefix)
	api.Use(middleware.RateLimit(a.rc.Raw()))
	api.Use(middleware.Idempotence(a.rc.Raw()))

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	// Admin view of scheduled jobs.
	api.GET("/cron", authMW, func(c *gin.Context) {
		response.OK(c, a.sched.List())
	})
	api.POST("/cron/:name/run", authMW, func(c *gin.Context) {
		if err := a.sched.Run(ctx, c.Param("name")); err != nil {
			response.NotFoundMsg(c, err.Error())
			return
		}
		response.NoContent(c)
	})

	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)
	project.NewHandler(project.NewService(db)).RegisterRoutes(api, authMW)
	session.NewHandler(session.NewService(db)).RegisterRoutes(api, authMW)
	report.NewHandler(report.NewService(db)).RegisterRoutes(api, authMW)
	settings.NewHandler(settings.NewService(db)).RegisterRoutes(api, authMW)

	// Timer core: one notifier shared by the lifecycle service and every
	// open stream, created once for the process.
	notifier := timer.NewNotifier()
	activeRepo := timer.NewActiveSessionRepository(db)
	projectRepo := timer.NewProjectRepository(db)
	timerSvc := timer.NewService(activeRepo, projectRepo, notifier, a.logger)
	streamSrv := timer.NewStreamServer(
		activeRepo, projectRepo, notifier, a.logger,
		time.Duration(a.cfg.Stream.TickMS)*time.Millisecond,
		time.Duration(a.cfg.Stream.QueryCacheMS)*time.Millisecond,
	)
	timer.NewHandler(timerSvc, streamSrv, ctx).RegisterRoutes(api, authMW)
}
