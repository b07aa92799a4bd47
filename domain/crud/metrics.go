package crud

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onap/aai-gizmo-sub001/pkg/apperror"
)

// Metrics counts and times inventory requests.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gizmo_requests_total",
			Help: "Inventory requests by operation, entity and response status",
		}, []string{"operation", "entity", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gizmo_request_duration_seconds",
			Help:    "Inventory request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "entity"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Observe is route middleware recording one request of operation on entity.
func (m *Metrics) Observe(operation, entity string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				status = apperror.StatusOf(err)
			}
			m.requests.WithLabelValues(operation, entity, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(operation, entity).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// MetricsHandler serves reg in the Prometheus text format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
