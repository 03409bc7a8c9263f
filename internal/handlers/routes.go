package handlers

import (
	"net/http"

	"barangayhealth/internal/middleware"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewAdminServer builds the internal admin API: health, job control and Prometheus metrics.
func NewAdminServer(health *HealthHandlers, jobs *JobHandlers, metricsHandler http.Handler, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", health.HealthCheck)
	e.GET("/health/live", health.LivenessCheck)
	e.GET("/metrics", echo.WrapHandler(metricsHandler))

	e.GET("/jobs", jobs.ListJobs)
	e.POST("/jobs/:name/run", jobs.RunJob)

	return e
}
