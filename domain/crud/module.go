package crud

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/onap/aai-gizmo-sub001/domain/events"
	"github.com/onap/aai-gizmo-sub001/internal/config"
)

// Module provides the inventory services, handler and metrics.
var Module = fx.Module("crud",
	fx.Provide(NewRegistry),
	fx.Provide(func(reg *prometheus.Registry) *Metrics { return NewMetrics(reg) }),
	fx.Provide(NewService),
	fx.Provide(NewAPI),
	fx.Provide(NewHandler),
	fx.Invoke(RegisterRoutes),
)

// NewAPI picks the event-driven service when GRAPH_ASYNC is set.
func NewAPI(
	cfg *config.Config,
	svc *Service,
	bus events.Bus,
	correlator *events.Correlator,
	responses *events.ResponseHandler,
	log *slog.Logger,
) API {
	if !cfg.Graph.Async {
		return svc
	}
	log.Info("mutations routed through the event bus",
		slog.String("subject", cfg.Events.RequestSubject))
	return NewAsyncService(svc, bus, correlator, responses, cfg.Events.RequestSubject, cfg.Events.SourceName)
}
