package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onap/aai-gizmo-sub001/domain/events"
	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Handler handles health check requests
type Handler struct {
	graph   graph.Pinger
	bus     events.Bus
	schemas *schema.Holder
	cfg     *config.Config
	startAt time.Time
}

// NewHandler creates a new health handler
func NewHandler(g graph.Pinger, bus events.Bus, schemas *schema.Holder, cfg *config.Config) *Handler {
	return &Handler{
		graph:   g,
		bus:     bus,
		schemas: schemas,
		cfg:     cfg,
		startAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func check(err error) Check {
	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error()}
	}
	return Check{Status: statusHealthy}
}

func (h *Handler) checks(ctx context.Context) map[string]Check {
	out := map[string]Check{
		"graph":  check(h.graph.Ping(ctx)),
		"events": check(h.bus.Ping(ctx)),
	}
	versions := h.schemas.Load().Versions()
	if len(versions) == 0 {
		out["schema"] = Check{Status: statusUnhealthy, Message: "no schema versions loaded"}
	} else {
		out["schema"] = Check{Status: statusHealthy, Message: h.schemas.Load().Latest()}
	}
	return out
}

// Health returns the overall service health
// @Summary      Get service health
// @Description  Returns graph backend, event bus and schema status with uptime
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse "Service is healthy"
// @Success      503 {object} HealthResponse "Service is unhealthy"
// @Router       /health [get]
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := h.checks(ctx)
	overall := statusHealthy
	for _, ch := range checks {
		if ch.Status == statusUnhealthy {
			overall = statusUnhealthy
		}
	}

	statusCode := http.StatusOK
	if overall == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startAt).String(),
		Version:   version.Version,
		Checks:    checks,
	})
}

// Healthz returns a simple health check (for k8s liveness probe)
// @Router       /healthz [get]
func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Ready reports whether the graph backend is reachable (for k8s readiness probe)
// @Router       /ready [get]
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.graph.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":  "not_ready",
			"message": "Graph backend unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// Debug returns runtime and wiring information outside production
// @Router       /debug [get]
func (h *Handler) Debug(c echo.Context) error {
	if h.cfg.Environment == "production" {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]any{
		"environment": h.cfg.Environment,
		"version":     version.Info(),
		"go_version":  runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"memory": map[string]any{
			"alloc_mb":       mem.Alloc / 1024 / 1024,
			"total_alloc_mb": mem.TotalAlloc / 1024 / 1024,
			"sys_mb":         mem.Sys / 1024 / 1024,
			"num_gc":         mem.NumGC,
		},
		"graph": map[string]any{
			"backend": h.cfg.Graph.Backend,
			"store":   h.cfg.Graph.Store,
			"async":   h.cfg.Graph.Async,
		},
		"events": map[string]any{
			"bus":              h.cfg.Events.Bus,
			"request_subject":  h.cfg.Events.RequestSubject,
			"response_subject": h.cfg.Events.ResponseSubject,
		},
		"schema_versions": h.schemas.Load().Versions(),
		"host":            collectHost(ctx),
	})
}
