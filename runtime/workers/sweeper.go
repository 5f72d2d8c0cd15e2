package workers

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler is the sweep entry point of the lifecycle manager.
type Reconciler interface {
	Sweep(ctx context.Context) error
}

// SweeperWorker drives the periodic garbage-collection sweep. It never runs
// on the interaction path; a failed sweep is logged and retried at the next
// tick.
type SweeperWorker struct {
	log        *slog.Logger
	reconciler Reconciler
	interval   time.Duration
}

func NewSweeperWorker(log *slog.Logger, reconciler Reconciler, interval time.Duration) *SweeperWorker {
	return &SweeperWorker{log: log, reconciler: reconciler, interval: interval}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting garbage-collection sweeper", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			started := time.Now()
			if err := w.reconciler.Sweep(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.log.Error("Sweep failed", "error", err)
				continue
			}
			w.log.Debug("Sweep completed", "took", time.Since(started))
		}
	}
}
