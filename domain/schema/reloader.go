package schema

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// Reloader periodically reloads a Source into a Holder.
type Reloader struct {
	holder *Holder
	source Source
	spec   string
	cron   *cron.Cron
	log    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReloader schedules reloads on a cron spec. Both 5-field and 6-field
// (with seconds) specs are accepted, as are descriptors like "@every 5m".
// An empty spec disables scheduling; Reload can still be called directly.
func NewReloader(holder *Holder, source Source, spec string, log *slog.Logger) *Reloader {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Reloader{
		holder: holder,
		source: source,
		spec:   spec,
		cron:   cron.New(cron.WithParser(parser)),
		log:    log.With(logger.Scope("schema.reloader")),
	}
}

// Reload loads the source and swaps the snapshot. On failure the previous
// snapshot stays in place.
func (r *Reloader) Reload(ctx context.Context) error {
	start := time.Now()
	reg, err := r.source.Load(ctx)
	if err != nil {
		r.log.Error("schema reload failed, keeping previous snapshot",
			slog.String("source", r.source.Name()),
			logger.Error(err))
		return err
	}
	r.holder.Store(reg)
	r.log.Info("schema reloaded",
		slog.String("source", r.source.Name()),
		slog.Any("versions", reg.Versions()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Start registers the cron job and starts the scheduler.
func (r *Reloader) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	if r.spec == "" {
		r.log.Debug("scheduled schema reload disabled")
		return nil
	}
	if _, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_ = r.Reload(ctx)
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.running = true
	r.log.Info("scheduled schema reload", slog.String("schedule", r.spec))
	return nil
}

// Stop waits for a running reload to finish or ctx to expire.
func (r *Reloader) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		r.log.Warn("schema reloader stop timeout")
	}
	r.running = false
	return nil
}
