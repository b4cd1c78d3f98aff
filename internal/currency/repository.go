package currency

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wealthlog/wealthlog/internal/domain"
)

var (
	// ErrNotFound indicates that the requested currency is not registered.
	ErrNotFound = errors.New("currency not found")
	// ErrDuplicate indicates that a currency with the same code already exists.
	ErrDuplicate = errors.New("currency already exists")
)

const uniqueViolation = "23505"

// Repository defines persistent storage for registered currencies.
type Repository interface {
	List(ctx context.Context) ([]domain.Currency, error)
	Create(ctx context.Context, c domain.Currency) (domain.Currency, error)
	Delete(ctx context.Context, code string) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL currency repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) List(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, symbol, unit FROM currencies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing currencies: %w", err)
	}
	defer rows.Close()

	currencies := []domain.Currency{}
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Symbol, &c.Unit); err != nil {
			return nil, fmt.Errorf("scanning currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func (r *PgRepository) Create(ctx context.Context, c domain.Currency) (domain.Currency, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO currencies (code, symbol, unit)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		c.Code, c.Symbol, c.Unit).Scan(&c.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Currency{}, fmt.Errorf("%w: %s", ErrDuplicate, c.Code)
		}
		return domain.Currency{}, fmt.Errorf("creating currency %s: %w", c.Code, err)
	}
	return c, nil
}

func (r *PgRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM currencies WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deleting currency %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
