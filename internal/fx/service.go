// Package fx keeps the rate history in step with an external rates API.
package fx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/rate"
)

// RateFetcher fetches current rates for a set of currency codes.
type RateFetcher interface {
	FetchRates(ctx context.Context, codes []string) (Quote, error)
}

// CurrencyLister lists the registered currency codes.
type CurrencyLister interface {
	Codes(ctx context.Context) ([]string, error)
}

// RateWriter stores a regime for a date.
type RateWriter interface {
	Set(ctx context.Context, date time.Time, rates domain.RateMap) (rate.Regime, error)
}

// Service syncs registered currencies from the rates API into the history.
type Service struct {
	fetcher    RateFetcher
	currencies CurrencyLister
	rates      RateWriter
}

// NewService creates a new sync Service.
func NewService(fetcher RateFetcher, currencies CurrencyLister, rates RateWriter) *Service {
	return &Service{fetcher: fetcher, currencies: currencies, rates: rates}
}

// Sync fetches rates for every registered non-base currency and upserts the
// regime for the quote's date.
func (s *Service) Sync(ctx context.Context) error {
	codes, err := s.currencies.Codes(ctx)
	if err != nil {
		return fmt.Errorf("listing currencies: %w", err)
	}
	codes = lo.Without(lo.Uniq(codes), domain.BaseCurrency)
	if len(codes) == 0 {
		slog.Info("fx sync: no foreign currencies registered")
		return nil
	}

	quote, err := s.fetcher.FetchRates(ctx, codes)
	if err != nil {
		return fmt.Errorf("fetching rates: %w", err)
	}

	rates := lo.PickByKeys(quote.Rates, append(codes, domain.BaseCurrency))
	if missing := lo.Reject(codes, func(c string, _ int) bool { return rates.Has(c) }); len(missing) > 0 {
		slog.Warn("fx sync: currencies missing from rates API", "codes", missing)
	}

	if _, err := s.rates.Set(ctx, quote.Date, rates); err != nil {
		return fmt.Errorf("storing rates for %s: %w", quote.Date.Format(rate.DateLayout), err)
	}
	return nil
}
