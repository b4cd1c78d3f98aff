package worker

import (
	"context"
	"log/slog"
	"time"
)

// shutdownFlushTimeout bounds the final flush of pending snapshots.
const shutdownFlushTimeout = 10 * time.Second

// PendingFlusher writes scheduled snapshots whose quiet window has elapsed.
type PendingFlusher interface {
	FlushDue(ctx context.Context, now time.Time) int
	FlushAll(ctx context.Context) int
}

// SnapshotWorker drives the snapshot debouncer. It is the only goroutine that
// performs snapshot writes, so writes for a group never overlap.
type SnapshotWorker struct {
	flusher PendingFlusher
	tick    time.Duration
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(flusher PendingFlusher, tick time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		flusher: flusher,
		tick:    tick,
	}
}

// Run starts the flush loop. It blocks until the context is cancelled, then
// writes whatever is still pending.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "tick", w.tick)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			slog.Info("SnapshotWorker: shutting down")
			return
		case now := <-ticker.C:
			if n := w.flusher.FlushDue(ctx, now); n > 0 {
				slog.Debug("SnapshotWorker: flushed", "groups", n)
			}
		}
	}
}

func (w *SnapshotWorker) drain(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
	defer cancel()

	if n := w.flusher.FlushAll(flushCtx); n > 0 {
		slog.Info("SnapshotWorker: flushed pending snapshots on shutdown", "groups", n)
	}
}
