package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/internal/config"
)

// Module provides the event bus, the response correlator and handler, and
// the optional in-process responder.
var Module = fx.Module("events",
	fx.Provide(NewBus),
	fx.Provide(NewCorrelatorFromConfig),
	fx.Provide(NewResponseHandler),
	fx.Invoke(RegisterCorrelator),
	fx.Invoke(RegisterResponder),
)

// NewBus opens the bus selected by EVENT_BUS.
func NewBus(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (Bus, error) {
	var bus Bus
	switch cfg.Events.Bus {
	case config.BusNATS:
		nb, err := NewNATSBus(cfg.Events.NATSURL, cfg.Events.SourceName, log)
		if err != nil {
			return nil, err
		}
		bus = nb
	default:
		bus = NewMemoryBus(log)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return bus.Close() },
	})
	return bus, nil
}

func NewCorrelatorFromConfig(cfg *config.Config, log *slog.Logger) *Correlator {
	return NewCorrelator(cfg.Events.ResponseTimeout, log)
}

// RegisterCorrelator feeds the response subject into the correlator.
func RegisterCorrelator(lc fx.Lifecycle, cfg *config.Config, bus Bus, c *Correlator) {
	var unsub func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			unsub, err = bus.Subscribe(ctx, cfg.Events.ResponseSubject, func(_ context.Context, env Envelope) {
				c.Deliver(env)
			})
			return err
		},
		OnStop: func(context.Context) error {
			if unsub != nil {
				unsub()
			}
			return nil
		},
	})
}

func RegisterResponder(lc fx.Lifecycle, cfg *config.Config, bus Bus, dao graph.Dao, log *slog.Logger) {
	if !cfg.Events.ResponderEnabled {
		return
	}
	r := NewResponder(bus, dao, cfg.Events.RequestSubject, cfg.Events.ResponseSubject, cfg.Events.SourceName, log)
	lc.Append(fx.Hook{
		OnStart: r.Start,
		OnStop:  r.Stop,
	})
}
