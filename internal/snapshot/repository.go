package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// DateLayout is the calendar-day format of Snapshot.Date.
const DateLayout = "2006-01-02"

// Snapshot is a group's asset list frozen on a calendar day.
type Snapshot struct {
	ID        int64           `json:"id"`
	GroupID   int64           `json:"groupId"`
	Date      string          `json:"date"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Upsert(ctx context.Context, groupID int64, date time.Time, data json.RawMessage) error
	List(ctx context.Context, groupID int64, from, to *time.Time) ([]Snapshot, error)
	GetByDate(ctx context.Context, groupID int64, date time.Time) (*Snapshot, error)
	GetLatest(ctx context.Context, groupID int64) (*Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Upsert writes the group's snapshot for date; an existing row for the same
// (group, date) is overwritten, so concurrent writers resolve last-write-wins.
func (r *PgRepository) Upsert(ctx context.Context, groupID int64, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO asset_snapshots (group_id, snapshot_date, data, updated_at)
		 VALUES ($1, $2, $3::jsonb, NOW())
		 ON CONFLICT (group_id, snapshot_date)
		 DO UPDATE SET data = $3::jsonb, updated_at = NOW()`,
		groupID, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// List returns snapshots oldest first. Nil bounds are open.
func (r *PgRepository) List(ctx context.Context, groupID int64, from, to *time.Time) ([]Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, snapshot_date, data, updated_at
		 FROM asset_snapshots
		 WHERE group_id = $1
		   AND ($2::date IS NULL OR snapshot_date >= $2::date)
		   AND ($3::date IS NULL OR snapshot_date <= $3::date)
		 ORDER BY snapshot_date ASC`, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, groupID int64, date time.Time) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT id, group_id, snapshot_date, data, updated_at
		 FROM asset_snapshots
		 WHERE group_id = $1 AND snapshot_date = $2`, groupID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) GetLatest(ctx context.Context, groupID int64) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		`SELECT id, group_id, snapshot_date, data, updated_at
		 FROM asset_snapshots
		 WHERE group_id = $1
		 ORDER BY snapshot_date DESC
		 LIMIT 1`, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return &s, nil
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var (
		s    Snapshot
		date time.Time
	)
	if err := row.Scan(&s.ID, &s.GroupID, &date, &s.Data, &s.UpdatedAt); err != nil {
		return Snapshot{}, err
	}
	s.Date = date.Format(DateLayout)
	return s, nil
}
