package schema

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/onap/aai-gizmo-sub001/internal/config"
	"github.com/onap/aai-gizmo-sub001/internal/storage"
	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Module provides the schema Holder and its scheduled reloader.
var Module = fx.Module("schema",
	fx.Provide(NewSource),
	fx.Provide(NewHolderFromSource),
	fx.Provide(NewReloaderFromConfig),
	fx.Invoke(RegisterReloaderLifecycle),
)

// NewSource picks the S3 source when a bucket is configured, else the directory.
func NewSource(cfg *config.Config, log *slog.Logger) (Source, error) {
	sc := cfg.Schema
	if sc.UseS3() {
		svc, err := storage.NewService(context.Background(), storage.Config{
			Endpoint:  sc.S3Endpoint,
			AccessKey: sc.S3AccessKey,
			SecretKey: sc.S3SecretKey,
			Region:    sc.S3Region,
		}, log)
		if err != nil {
			return nil, err
		}
		return NewS3Source(svc, sc.S3Bucket, sc.S3Prefix), nil
	}
	return NewFSSource(os.DirFS(sc.Dir), sc.Dir), nil
}

// NewHolderFromSource performs the initial load. A schema that cannot be
// loaded at startup is fatal.
func NewHolderFromSource(src Source, log *slog.Logger) (*Holder, error) {
	reg, err := src.Load(context.Background())
	if err != nil {
		return nil, err
	}
	log.With(logger.Scope("schema")).Info("schema loaded",
		slog.String("source", src.Name()),
		slog.Any("versions", reg.Versions()),
	)
	return NewHolder(reg), nil
}

func NewReloaderFromConfig(cfg *config.Config, holder *Holder, src Source, log *slog.Logger) *Reloader {
	return NewReloader(holder, src, cfg.Schema.ReloadCron, log)
}

func RegisterReloaderLifecycle(lc fx.Lifecycle, r *Reloader) {
	lc.Append(fx.Hook{
		OnStart: r.Start,
		OnStop:  r.Stop,
	})
}
