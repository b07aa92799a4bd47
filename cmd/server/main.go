// Package main runs the inventory CRUD service: schema-validated vertex and
// edge operations over an embedded or remote graph store.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/onap/aai-gizmo-sub001/domain/crud"
	"github.com/onap/aai-gizmo-sub001/domain/events"
	"github.com/onap/aai-gizmo-sub001/domain/graph"
	"github.com/onap/aai-gizmo-sub001/domain/health"
	"github.com/onap/aai-gizmo-sub001/domain/schema"
	"github.com/onap/aai-gizmo-sub001/domain/tracing"
	"github.com/onap/aai-gizmo-sub001/domain/validation"
	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/internal/server"
	"github.com/onap/aai-gizmo-sub001/internal/version"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

func main() {
	// .env.local overrides .env; neither overrides the real environment
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure
		logger.Module,
		config.Module,
		server.Module,
		tracing.Module,

		// Inventory
		schema.Module,
		graph.Module,
		validation.Module,
		events.Module,
		crud.Module,
		health.Module,

		fx.Invoke(func(log *slog.Logger) {
			log.Info("gizmo starting", slog.String("version", version.String()))
		}),
	).Run()
}
