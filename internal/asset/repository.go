package asset

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// ErrNotFound indicates that the requested asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Repository defines persistent storage for assets.
type Repository interface {
	ListByGroup(ctx context.Context, groupID int64) ([]domain.Asset, error)
	Get(ctx context.Context, id int64) (domain.Asset, error)
	Create(ctx context.Context, a domain.Asset) (domain.Asset, error)
	Update(ctx context.Context, a domain.Asset) (domain.Asset, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL asset repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const assetColumns = `id, group_id, name, description, owner, icon, type, amount, currency, not_counted, created_at, updated_at`

func (r *PgRepository) ListByGroup(ctx context.Context, groupID int64) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assetColumns+`
		 FROM assets
		 WHERE group_id = $1
		 ORDER BY created_at DESC, id DESC`, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}

func (r *PgRepository) Get(ctx context.Context, id int64) (domain.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("getting asset %d: %w", id, err)
	}
	return a, nil
}

func (r *PgRepository) Create(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	created, err := scanAsset(r.pool.QueryRow(ctx,
		`INSERT INTO assets (group_id, name, description, owner, icon, type, amount, currency, not_counted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+assetColumns,
		a.GroupID, a.Name, a.Description, a.Owner, a.Icon, a.Type, a.Amount, a.Currency, a.NotCounted))
	if err != nil {
		return domain.Asset{}, fmt.Errorf("creating asset: %w", err)
	}
	return created, nil
}

func (r *PgRepository) Update(ctx context.Context, a domain.Asset) (domain.Asset, error) {
	updated, err := scanAsset(r.pool.QueryRow(ctx,
		`UPDATE assets
		 SET group_id = $1, name = $2, description = $3, owner = $4, icon = $5, type = $6,
		     amount = $7, currency = $8, not_counted = $9, updated_at = NOW()
		 WHERE id = $10
		 RETURNING `+assetColumns,
		a.GroupID, a.Name, a.Description, a.Owner, a.Icon, a.Type, a.Amount, a.Currency, a.NotCounted, a.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, ErrNotFound
		}
		return domain.Asset{}, fmt.Errorf("updating asset %d: %w", a.ID, err)
	}
	return updated, nil
}

// Delete removes the asset and returns the group it belonged to.
func (r *PgRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var groupID int64
	err := r.pool.QueryRow(ctx,
		`DELETE FROM assets WHERE id = $1 RETURNING group_id`, id).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("deleting asset %d: %w", id, err)
	}
	return groupID, nil
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.GroupID, &a.Name, &a.Description, &a.Owner, &a.Icon, &a.Type,
		&a.Amount, &a.Currency, &a.NotCounted, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
