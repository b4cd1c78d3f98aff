package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type flushCall struct {
	groupID   int64
	localDate string
}

type mockFlusher struct {
	mu      sync.Mutex
	calls   []flushCall
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (m *mockFlusher) Flush(_ context.Context, groupID int64, localDate string) error {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, flushCall{groupID, localDate})
	return m.err
}

func (m *mockFlusher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestDebouncer(f Flusher) (*Debouncer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDebouncer(f, 300*time.Millisecond)
	d.now = clock.now
	return d, clock
}

func TestBurstProducesOneWrite(t *testing.T) {
	f := &mockFlusher{}
	d, clock := newTestDebouncer(f)
	ctx := context.Background()

	for range 5 {
		d.Schedule(1, "2024-05-01")
		clock.t = clock.t.Add(100 * time.Millisecond)
	}

	// Last schedule was 100ms ago, window still open.
	if n := d.FlushDue(ctx, clock.t); n != 0 {
		t.Fatalf("flushed %d groups inside the window, want 0", n)
	}
	if got := d.State(1); got != PendingWrite {
		t.Errorf("state = %v, want pending", got)
	}

	clock.t = clock.t.Add(200 * time.Millisecond)
	if n := d.FlushDue(ctx, clock.t); n != 1 {
		t.Fatalf("flushed %d groups, want 1", n)
	}
	if f.count() != 1 {
		t.Errorf("flusher called %d times, want 1", f.count())
	}
	if got := d.State(1); got != Idle {
		t.Errorf("state after flush = %v, want idle", got)
	}
}

func TestGroupsAreIndependent(t *testing.T) {
	f := &mockFlusher{}
	d, clock := newTestDebouncer(f)

	d.Schedule(1, "2024-05-01")
	clock.t = clock.t.Add(250 * time.Millisecond)
	d.Schedule(2, "2024-05-01")
	clock.t = clock.t.Add(100 * time.Millisecond)

	if n := d.FlushDue(context.Background(), clock.t); n != 1 {
		t.Fatalf("flushed %d groups, want 1", n)
	}
	if f.calls[0].groupID != 1 {
		t.Errorf("flushed group %d, want 1", f.calls[0].groupID)
	}
	if d.State(2) != PendingWrite {
		t.Errorf("group 2 state = %v, want pending", d.State(2))
	}
}

func TestLatestNonEmptyLocalDateWins(t *testing.T) {
	f := &mockFlusher{}
	d, clock := newTestDebouncer(f)

	d.Schedule(1, "2024-05-01")
	d.Schedule(1, "2024-05-02")
	d.Schedule(1, "")
	clock.t = clock.t.Add(time.Second)
	d.FlushDue(context.Background(), clock.t)

	if len(f.calls) != 1 || f.calls[0].localDate != "2024-05-02" {
		t.Errorf("calls = %+v, want one flush for 2024-05-02", f.calls)
	}
}

func TestFlushAllIgnoresWindow(t *testing.T) {
	f := &mockFlusher{}
	d, _ := newTestDebouncer(f)

	d.Schedule(1, "2024-05-01")
	d.Schedule(2, "2024-05-01")
	if n := d.FlushAll(context.Background()); n != 2 {
		t.Errorf("FlushAll = %d, want 2", n)
	}
	if d.Pending() != 0 {
		t.Errorf("pending = %d, want 0", d.Pending())
	}
}

func TestFailedFlushReturnsToIdle(t *testing.T) {
	f := &mockFlusher{err: errors.New("db down")}
	d, clock := newTestDebouncer(f)

	d.Schedule(1, "2024-05-01")
	clock.t = clock.t.Add(time.Second)
	if n := d.FlushDue(context.Background(), clock.t); n != 0 {
		t.Errorf("FlushDue = %d, want 0 successful writes", n)
	}
	if d.State(1) != Idle {
		t.Errorf("state = %v, want idle", d.State(1))
	}
}

func TestMutationDuringWriteRearmsGroup(t *testing.T) {
	f := &mockFlusher{block: make(chan struct{}), entered: make(chan struct{})}
	d, clock := newTestDebouncer(f)

	d.Schedule(1, "2024-05-01")
	clock.t = clock.t.Add(time.Second)

	done := make(chan int)
	go func() { done <- d.FlushDue(context.Background(), clock.t) }()

	<-f.entered
	if got := d.State(1); got != Writing {
		t.Errorf("state during write = %v, want writing", got)
	}

	d.Schedule(1, "2024-05-01")
	if got := d.State(1); got != PendingWrite {
		t.Errorf("state after re-arm = %v, want pending", got)
	}

	close(f.block)
	<-done

	if got := d.State(1); got != PendingWrite {
		t.Errorf("state after write = %v, want pending (re-armed)", got)
	}
	if d.Pending() != 1 {
		t.Errorf("pending = %d, want 1", d.Pending())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", PendingWrite: "pending", Writing: "writing"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
