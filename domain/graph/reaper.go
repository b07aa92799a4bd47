package graph

import (
	"context"
	"log/slog"
	"time"

	"github.com/onap/aai-gizmo-sub001/internal/jobs"
	"github.com/onap/aai-gizmo-sub001/pkg/graphstore"
)

// NewTxReaper returns a worker that rolls back transactions left idle for
// longer than idle.
func NewTxReaper(reaper graphstore.IdleReaper, idle, interval time.Duration, log *slog.Logger) *jobs.Worker {
	return jobs.NewWorker(jobs.WorkerConfig{
		Name:     "graph-tx-reaper",
		Interval: interval,
	}, log, func(ctx context.Context) error {
		rolled, err := reaper.RollbackIdle(ctx, idle)
		if err != nil {
			return err
		}
		if len(rolled) > 0 {
			log.Warn("rolled back idle transactions",
				slog.Int("count", len(rolled)),
				slog.Any("transaction_ids", rolled),
				slog.Duration("idle_timeout", idle))
		}
		return nil
	})
}
