package artifact

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically deletes clips older than the retention window. A
// retention of zero disables it.
type Janitor struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewJanitor builds a janitor that sweeps every interval. If interval is
// zero, a tenth of the retention window is used, clamped to one minute.
func NewJanitor(store Store, retention, interval time.Duration, logger *slog.Logger) *Janitor {
	if interval <= 0 {
		interval = retention / 10
		if interval < time.Minute {
			interval = time.Minute
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{store: store, retention: retention, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled. It blocks; callers start it in
// a goroutine.
func (j *Janitor) Run(ctx context.Context) {
	if j.retention <= 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-j.retention)
			deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				j.logger.Error("artifact retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				j.logger.Info("artifact retention sweep", "deleted", deleted)
			}
		}
	}
}
