// Package currency manages the registry of currencies users can hold assets in.
package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// ErrInvalid indicates a currency that fails validation.
var ErrInvalid = errors.New("invalid currency")

// Service validates and stores currencies.
type Service struct {
	repo Repository
}

// NewService creates a new currency Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns every registered currency in registration order.
func (s *Service) List(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.List(ctx)
}

// Codes returns the registered currency codes.
func (s *Service) Codes(ctx context.Context) ([]string, error) {
	currencies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(currencies, func(c domain.Currency, _ int) string { return c.Code }), nil
}

// Create registers a currency. The code is upper-cased before storing.
func (s *Service) Create(ctx context.Context, c domain.Currency) (domain.Currency, error) {
	c.Code = domain.NormalizeCode(c.Code)
	c.Symbol = strings.TrimSpace(c.Symbol)
	c.Unit = strings.TrimSpace(c.Unit)

	if c.Code == "" {
		return domain.Currency{}, fmt.Errorf("%w: code is required", ErrInvalid)
	}
	if c.Symbol == "" {
		return domain.Currency{}, fmt.Errorf("%w: symbol is required", ErrInvalid)
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return domain.Currency{}, err
	}
	slog.Info("currency registered", "code", created.Code)
	return created, nil
}

// Delete removes a currency. The base currency cannot be removed.
func (s *Service) Delete(ctx context.Context, code string) error {
	code = domain.NormalizeCode(code)
	if code == domain.BaseCurrency {
		return fmt.Errorf("%w: %s is the base currency", ErrInvalid, code)
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return err
	}
	slog.Info("currency removed", "code", code)
	return nil
}
