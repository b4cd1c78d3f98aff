package worker

import (
	"context"
	"log/slog"
	"time"
)

// RateSyncer refreshes the rate history from an external source.
type RateSyncer interface {
	Sync(ctx context.Context) error
}

// RateSyncWorker periodically syncs exchange rates.
type RateSyncWorker struct {
	syncer   RateSyncer
	interval time.Duration
}

// NewRateSyncWorker creates a new RateSyncWorker.
func NewRateSyncWorker(syncer RateSyncer, interval time.Duration) *RateSyncWorker {
	return &RateSyncWorker{
		syncer:   syncer,
		interval: interval,
	}
}

// Run starts the sync loop. It blocks until the context is cancelled.
func (w *RateSyncWorker) Run(ctx context.Context) {
	slog.Info("RateSyncWorker: starting", "interval", w.interval)

	// Sync immediately on startup
	w.sync(ctx, "initial sync")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateSyncWorker: shutting down")
			return
		case <-ticker.C:
			w.sync(ctx, "sync")
		}
	}
}

func (w *RateSyncWorker) sync(ctx context.Context, what string) {
	if err := w.syncer.Sync(ctx); err != nil {
		slog.Error("RateSyncWorker: "+what+" failed", "error", err)
		return
	}
	slog.Info("RateSyncWorker: " + what + " completed")
}
