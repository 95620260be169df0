package app

import (
	"context"
	"log/slog"
	"time"
)

type fetchLogPruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// runRetention prunes fetch log rows older than retention once at start and
// then every interval until ctx is done.
func runRetention(ctx context.Context, repo fetchLogPruner, retention, interval time.Duration, now func() time.Time) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		pruneOnce(ctx, repo, retention, now)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pruneOnce(ctx context.Context, repo fetchLogPruner, retention time.Duration, now func() time.Time) {
	cutoff := now().Add(-retention)
	n, err := repo.PruneBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("fetch log prune failed", "error", err)
		}
		return
	}
	if n > 0 {
		slog.Info("fetch log pruned", "rows", n, "cutoff", cutoff)
	}
}
