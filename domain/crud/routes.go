package crud

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterRoutes mounts the inventory API and /metrics.
func RegisterRoutes(e *echo.Echo, h *Handler, m *Metrics, reg *prometheus.Registry) {
	g := e.Group(BasePath)

	// Edges
	g.GET("/relationships/:version/:type", h.GetEdges, m.Observe("list", "edge"))
	g.POST("/relationships/:version/:type", h.AddEdge, m.Observe("add", "edge"))
	g.GET("/relationships/:version/:type/:id", h.GetEdge, m.Observe("get", "edge"))
	g.PUT("/relationships/:version/:type/:id", h.UpdateEdge, m.Observe("update", "edge"))
	g.PATCH("/relationships/:version/:type/:id", h.PatchEdge, m.Observe("patch", "edge"))
	g.DELETE("/relationships/:version/:type/:id", h.DeleteEdge, m.Observe("delete", "edge"))

	// Batches
	g.POST("/:version/bulk", h.Bulk, m.Observe("bulk", "batch"))

	// Vertices
	g.GET("/:version/:type", h.GetVertices, m.Observe("list", "vertex"))
	g.POST("/:version/:type", h.AddVertex, m.Observe("add", "vertex"))
	g.GET("/:version/:type/:id", h.GetVertex, m.Observe("get", "vertex"))
	g.PUT("/:version/:type/:id", h.UpdateVertex, m.Observe("update", "vertex"))
	g.PATCH("/:version/:type/:id", h.PatchVertex, m.Observe("patch", "vertex"))
	g.DELETE("/:version/:type/:id", h.DeleteVertex, m.Observe("delete", "vertex"))

	e.GET("/metrics", echo.WrapHandler(MetricsHandler(reg)))
}
