package rate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that no regime exists for the query.
var ErrNotFound = errors.New("rate regime not found")

// Repository defines persistent storage for rate regimes.
type Repository interface {
	Upsert(ctx context.Context, date time.Time, payload json.RawMessage) (Regime, error)
	List(ctx context.Context) ([]Regime, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL rate repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Upsert stores payload for date, replacing any regime already effective on that day.
func (r *PgRepository) Upsert(ctx context.Context, date time.Time, payload json.RawMessage) (Regime, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO rate_regimes (effective_date, payload, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (effective_date)
		 DO UPDATE SET payload = $2::jsonb, updated_at = NOW()
		 RETURNING id, effective_date, payload, updated_at`,
		Day(date), payload)
	reg, err := scanRegime(row)
	if err != nil {
		return Regime{}, fmt.Errorf("upserting rate regime: %w", err)
	}
	return reg, nil
}

// List returns every regime ordered by effective date, oldest first.
func (r *PgRepository) List(ctx context.Context) ([]Regime, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, effective_date, payload, updated_at
		 FROM rate_regimes
		 ORDER BY effective_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing rate regimes: %w", err)
	}
	defer rows.Close()

	var regimes []Regime
	for rows.Next() {
		reg, err := scanRegime(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rate regime: %w", err)
		}
		regimes = append(regimes, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rate regimes: %w", err)
	}
	return regimes, nil
}

func scanRegime(row pgx.Row) (Regime, error) {
	var (
		reg     Regime
		payload []byte
	)
	if err := row.Scan(&reg.ID, &reg.EffectiveDate, &payload, &reg.UpdatedAt); err != nil {
		return Regime{}, err
	}
	rates, err := DecodePayload(payload)
	if err != nil {
		return Regime{}, err
	}
	reg.EffectiveDate = Day(reg.EffectiveDate)
	reg.Base = Bootstrap.Base
	reg.Rates = rates
	return reg, nil
}
