package workers

import (
	"context"
	"log/slog"
	"time"
)

// ActivityPruner drops stale per-user activity timestamps.
type ActivityPruner interface {
	PruneActivity() int
}

// ActivityWorker runs the idle-activity sweep, independent of the garbage
// collector. Pruning is the only action taken: the table is instrumentation,
// nobody gets kicked or muted over staleness.
type ActivityWorker struct {
	log      *slog.Logger
	pruner   ActivityPruner
	interval time.Duration
}

func NewActivityWorker(log *slog.Logger, pruner ActivityPruner, interval time.Duration) *ActivityWorker {
	return &ActivityWorker{log: log, pruner: pruner, interval: interval}
}

func (w *ActivityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if pruned := w.pruner.PruneActivity(); pruned > 0 {
				w.log.Debug("Stale activity timestamps pruned", "count", pruned)
			}
		}
	}
}
