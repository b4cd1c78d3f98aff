package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates that the requested group does not exist.
	ErrNotFound = errors.New("group not found")
	// ErrInUse indicates a group that still holds assets.
	ErrInUse = errors.New("group still has assets")
)

const foreignKeyViolation = "23503"

// Group is a named collection of assets valued and snapshotted together.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository defines persistent storage for asset groups.
type Repository interface {
	List(ctx context.Context) ([]Group, error)
	Get(ctx context.Context, id int64) (Group, error)
	Default(ctx context.Context) (Group, error)
	Create(ctx context.Context, name string) (Group, error)
	Rename(ctx context.Context, id int64, name string) (Group, error)
	Delete(ctx context.Context, id int64) error
	SetDefault(ctx context.Context, id int64) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL group repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const groupColumns = `id, name, is_default, created_at`

func (r *PgRepository) List(ctx context.Context) ([]Group, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+groupColumns+` FROM asset_groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Group, error) {
		return scanGroup(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning groups: %w", err)
	}
	return groups, nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (Group, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM asset_groups WHERE id = $1`, id)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return Group{}, fmt.Errorf("getting group %d: %w", id, err)
	}
	return g, nil
}

// Default returns the group flagged as default, falling back to the oldest
// group when none is flagged.
func (r *PgRepository) Default(ctx context.Context) (Group, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+groupColumns+`
		 FROM asset_groups
		 ORDER BY is_default DESC, id
		 LIMIT 1`)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, fmt.Errorf("getting default group: %w", err)
	}
	return g, nil
}

func (r *PgRepository) Create(ctx context.Context, name string) (Group, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO asset_groups (name) VALUES ($1)
		 RETURNING `+groupColumns, name)
	g, err := scanGroup(row)
	if err != nil {
		return Group{}, fmt.Errorf("creating group: %w", err)
	}
	return g, nil
}

func (r *PgRepository) Rename(ctx context.Context, id int64, name string) (Group, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE asset_groups SET name = $2 WHERE id = $1
		 RETURNING `+groupColumns, id, name)
	g, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return Group{}, fmt.Errorf("renaming group %d: %w", id, err)
	}
	return g, nil
}

// Delete removes the group together with its snapshots. Groups that still
// hold assets are rejected with ErrInUse.
func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM asset_snapshots WHERE group_id = $1`, id); err != nil {
			return fmt.Errorf("deleting snapshots of group %d: %w", id, err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM asset_groups WHERE id = $1`, id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
				return fmt.Errorf("%w: %d", ErrInUse, id)
			}
			return fmt.Errorf("deleting group %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil
	})
}

// SetDefault moves the default flag to id.
func (r *PgRepository) SetDefault(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE asset_groups SET is_default = FALSE WHERE is_default AND id <> $1`, id); err != nil {
			return fmt.Errorf("clearing default group: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE asset_groups SET is_default = TRUE WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("setting default group %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil
	})
}

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.IsDefault, &g.CreatedAt)
	return g, err
}
