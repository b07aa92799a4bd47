package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/internal/database"
	"github.com/onap/aai-gizmo-sub001/internal/migrate"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore/memstore"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore/pgstore"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Module provides the configured Dao and mounts the peer API.
var Module = fx.Module("graph",
	fx.Provide(NewDao),
	fx.Provide(func(d Dao) Pinger { return d.(Pinger) }),
	fx.Provide(NewPeerHandler),
	fx.Invoke(registerPeerRoutes),
)

// NewDao builds the DAO selected by GRAPH_BACKEND. The embedded backend also
// opens its store and runs the idle transaction reaper for the app lifetime.
func NewDao(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger, zl *zap.Logger) (Dao, error) {
	if cfg.Graph.Backend == config.BackendRemote {
		log.Info("using remote graph backend", slog.String("url", cfg.Graph.RemoteURL))
		return NewRemoteDao(cfg.Graph.RemoteURL, cfg.Graph.RemoteAppID, cfg.Graph.RemoteTimeout, log)
	}

	store, closeStore, err := OpenStore(context.Background(), cfg, log, zl)
	if err != nil {
		return nil, err
	}
	var reaper interface {
		Start(context.Context) error
		Stop(context.Context) error
	}
	if r, ok := store.(graphstore.IdleReaper); ok {
		reaper = NewTxReaper(r, cfg.Graph.TxIdleTimeout, cfg.Graph.TxReapInterval, log.With(logger.Scope("graph.reaper")))
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if reaper != nil {
				return reaper.Start(ctx)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if reaper != nil {
				_ = reaper.Stop(ctx)
			}
			return closeStore()
		},
	})
	return NewEmbeddedDao(store, log), nil
}

// OpenStore opens the embedded store selected by GRAPH_STORE. The returned
// close function releases the store and any database pool behind it.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger, zl *zap.Logger) (graphstore.Store, func() error, error) {
	switch cfg.Graph.Store {
	case config.StoreMemory:
		log.Info("using in-memory graph store")
		s := memstore.New()
		return s, s.Close, nil

	case config.StorePostgres:
		db, err := database.Open(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrate.NewMigrator(db.Bun, zl).Up(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("migrate graph store: %w", err)
			}
		}
		s := pgstore.New(db.Bun, log)
		return s, func() error {
			err := s.Close()
			if cerr := db.Close(); err == nil {
				err = cerr
			}
			return err
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown graph store %q", cfg.Graph.Store)
}

func registerPeerRoutes(e *echo.Echo, h *PeerHandler, cfg *config.Config) {
	if cfg.Graph.PeerAPIEnabled {
		RegisterPeerRoutes(e, h)
	}
}
