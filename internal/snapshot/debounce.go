package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultWindow is the coalescing window for bursts of asset mutations.
const DefaultWindow = 300 * time.Millisecond

// State is a group's position in the write cycle.
type State int

const (
	Idle State = iota
	PendingWrite
	Writing
)

func (s State) String() string {
	switch s {
	case PendingWrite:
		return "pending"
	case Writing:
		return "writing"
	default:
		return "idle"
	}
}

// Flusher writes one group's snapshot.
type Flusher interface {
	Flush(ctx context.Context, groupID int64, localDate string) error
}

type pendingWrite struct {
	localDate string
	dueAt     time.Time
}

// Debouncer coalesces snapshot requests per group. Schedule only marks the
// group pending; a single periodic task calls FlushDue to perform the writes.
// Dropping a pending mark is harmless because the storage upsert, not the
// debouncer, guarantees one snapshot per group and day.
type Debouncer struct {
	flusher Flusher
	window  time.Duration
	now     func() time.Time

	mu      sync.Mutex
	pending map[int64]pendingWrite
	writing map[int64]bool
}

// NewDebouncer creates a Debouncer. A non-positive window uses DefaultWindow.
func NewDebouncer(flusher Flusher, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		flusher: flusher,
		window:  window,
		now:     time.Now,
		pending: make(map[int64]pendingWrite),
		writing: make(map[int64]bool),
	}
}

// Schedule marks the group pending and restarts its window. The most recent
// non-empty localDate wins.
func (d *Debouncer) Schedule(groupID int64, localDate string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.pending[groupID]
	if localDate != "" {
		p.localDate = localDate
	}
	p.dueAt = d.now().Add(d.window)
	d.pending[groupID] = p
}

// State reports where the group is in the write cycle. A group that is being
// written and has been re-armed reports PendingWrite.
func (d *Debouncer) State(groupID int64) State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[groupID]; ok {
		return PendingWrite
	}
	if d.writing[groupID] {
		return Writing
	}
	return Idle
}

// Pending returns the number of groups waiting to be written.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// FlushDue flushes every group whose window has elapsed at now and returns how
// many flushes completed without error.
func (d *Debouncer) FlushDue(ctx context.Context, now time.Time) int {
	return d.flush(ctx, func(p pendingWrite) bool { return !p.dueAt.After(now) })
}

// FlushAll writes every pending group regardless of its window.
func (d *Debouncer) FlushAll(ctx context.Context) int {
	return d.flush(ctx, func(pendingWrite) bool { return true })
}

func (d *Debouncer) flush(ctx context.Context, due func(pendingWrite) bool) int {
	d.mu.Lock()
	batch := make(map[int64]string)
	for groupID, p := range d.pending {
		if d.writing[groupID] || !due(p) {
			continue
		}
		batch[groupID] = p.localDate
		delete(d.pending, groupID)
		d.writing[groupID] = true
	}
	d.mu.Unlock()

	written := 0
	for groupID, localDate := range batch {
		if err := d.flusher.Flush(ctx, groupID, localDate); err != nil {
			slog.Error("snapshot flush failed", "group", groupID, "localDate", localDate, "error", err)
		} else {
			written++
		}

		d.mu.Lock()
		delete(d.writing, groupID)
		d.mu.Unlock()
	}
	return written
}
