package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

// PingerCheck wraps anything with a Ping(ctx) error method, such as *pgxpool.Pool.
func PingerCheck(p interface{ Ping(context.Context) error }) Checker {
	return p.Ping
}

// RedisCheck pings a Redis client.
func RedisCheck(client redis.Cmdable) Checker {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// HealthHandlers handles health check endpoints
type HealthHandlers struct {
	checks  map[string]Checker
	version string
	started time.Time
	timeout time.Duration
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(version string, checks map[string]Checker) *HealthHandlers {
	return &HealthHandlers{
		checks:  checks,
		version: version,
		started: time.Now(),
		timeout: 2 * time.Second,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck checks every dependency and reports 503 when any is down.
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string, len(h.checks)),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version,
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			continue
		}
		health.Services[name] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, health)
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
