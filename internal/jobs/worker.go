// Package jobs runs periodic background work, such as rolling back idle
// graph transactions.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// WorkerConfig contains configuration for a background worker
type WorkerConfig struct {
	// Name is a descriptive name for the worker (for logging)
	Name string
	// Interval is how often the work function runs (default: 30s)
	Interval time.Duration
	// RunOnStart runs the work function once immediately on Start
	RunOnStart bool
}

// Worker calls a work function on a fixed interval until stopped.
type Worker struct {
	config    WorkerConfig
	log       *slog.Logger
	process   func(ctx context.Context) error
	cancel    context.CancelFunc
	stoppedCh chan struct{}
	running   bool
	mu        sync.Mutex

	metricsMu    sync.RWMutex
	runCount     int64
	failureCount int64
}

// NewWorker creates a new background worker
func NewWorker(config WorkerConfig, log *slog.Logger, process func(ctx context.Context) error) *Worker {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &Worker{
		config:  config,
		log:     log.With(logger.Scope("jobs"), slog.String("worker", config.Name)),
		process: process,
	}
}

// Start begins the worker loop. The loop outlives ctx; use Stop to end it.
func (w *Worker) Start(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.stoppedCh = make(chan struct{})
	w.running = true

	w.log.Info("worker starting", slog.Duration("interval", w.config.Interval))
	go w.run(ctx)
	return nil
}

// Stop ends the loop, waiting for a running pass to finish or ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	stopped := w.stoppedCh
	w.mu.Unlock()

	select {
	case <-stopped:
		w.log.Info("worker stopped gracefully")
	case <-ctx.Done():
		w.log.Warn("worker stop timeout, forcing shutdown")
	}
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedCh)

	if w.config.RunOnStart {
		w.runOnce(ctx)
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	err := w.process(ctx)

	w.metricsMu.Lock()
	w.runCount++
	if err != nil {
		w.failureCount++
	}
	w.metricsMu.Unlock()

	if err != nil && ctx.Err() == nil {
		w.log.Warn("worker pass failed", logger.Error(err))
	}
}

// Metrics returns current worker metrics
func (w *Worker) Metrics() WorkerMetrics {
	w.metricsMu.RLock()
	defer w.metricsMu.RUnlock()
	return WorkerMetrics{Runs: w.runCount, Failed: w.failureCount}
}

// IsRunning returns whether the worker is currently running
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// WorkerMetrics contains worker metrics
type WorkerMetrics struct {
	Runs   int64 `json:"runs"`
	Failed int64 `json:"failed"`
}
