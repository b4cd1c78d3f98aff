package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type mockFlusher struct {
	dueCalls atomic.Int32
	allCalls atomic.Int32
	allErr   atomic.Value
}

func (m *mockFlusher) FlushDue(_ context.Context, _ time.Time) int {
	m.dueCalls.Add(1)
	return 0
}

func (m *mockFlusher) FlushAll(ctx context.Context) int {
	m.allCalls.Add(1)
	if err := ctx.Err(); err != nil {
		m.allErr.Store(err)
	}
	return 1
}

func TestSnapshotWorkerTicksAndDrainsOnShutdown(t *testing.T) {
	mock := &mockFlusher{}
	w := NewSnapshotWorker(mock, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.dueCalls.Load(); got < 2 {
		t.Errorf("FlushDue calls = %d, want >= 2", got)
	}
	if got := mock.allCalls.Load(); got != 1 {
		t.Errorf("FlushAll calls = %d, want 1", got)
	}
	if err := mock.allErr.Load(); err != nil {
		t.Errorf("shutdown flush got a cancelled context: %v", err)
	}
}
