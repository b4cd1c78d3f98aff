// Package valuation converts amounts between currencies and totals asset lists.
//
// All rates are currency-per-base (see domain.RateMap). Results are rounded to
// two decimals once per conversion; totals convert the aggregate once rather
// than each asset separately.
package valuation

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/rate"
)

// ErrUnknownCurrency is returned when a total is requested in a currency that
// neither the supplied rates nor the bootstrap regime know about.
var ErrUnknownCurrency = errors.New("unknown currency")

var one = decimal.NewFromInt(1)

// rateOf returns the rate for code, or 1 when the map has no usable entry.
func rateOf(rates domain.RateMap, code string) decimal.Decimal {
	if rates.Has(code) {
		return rates[code]
	}
	if code != domain.BaseCurrency {
		slog.Warn("missing exchange rate, using 1", "currency", code)
	}
	return one
}

// Convert converts amount from one currency to another through the base currency.
// It never fails: a currency missing from rates is valued at rate 1.
func Convert(amount decimal.Decimal, from, to string, rates domain.RateMap) decimal.Decimal {
	if from == to {
		return domain.Round2(amount)
	}
	base := amount.Div(rateOf(rates, from))
	return domain.Round2(base.Mul(rateOf(rates, to)))
}

// ToBase returns the asset's value in the base currency, preferring a cached BaseAmount.
func ToBase(a domain.Asset, rates domain.RateMap) decimal.Decimal {
	if a.BaseAmount != nil {
		return *a.BaseAmount
	}
	return Convert(a.Amount, a.Currency, domain.BaseCurrency, rates)
}

// WithBaseAmounts returns copies of assets with BaseAmount filled from rates.
func WithBaseAmounts(assets []domain.Asset, rates domain.RateMap) []domain.Asset {
	return lo.Map(assets, func(a domain.Asset, _ int) domain.Asset {
		v := Convert(a.Amount, a.Currency, domain.BaseCurrency, rates)
		a.BaseAmount = &v
		return a
	})
}

// WithoutBaseAmounts returns copies of assets with any cached BaseAmount cleared.
func WithoutBaseAmounts(assets []domain.Asset) []domain.Asset {
	return lo.Map(assets, func(a domain.Asset, _ int) domain.Asset {
		a.BaseAmount = nil
		return a
	})
}

// Total sums assets in target currency. Filtering (e.g. not-counted assets) is
// the caller's job.
func Total(assets []domain.Asset, target string, rates domain.RateMap) (decimal.Decimal, error) {
	rates, err := resolveTarget(target, rates)
	if err != nil {
		return decimal.Zero, err
	}

	sameCurrency := lo.EveryBy(assets, func(a domain.Asset) bool {
		return a.Currency == target
	})
	if sameCurrency {
		return lo.Reduce(assets, func(acc decimal.Decimal, a domain.Asset, _ int) decimal.Decimal {
			return acc.Add(a.Amount)
		}, decimal.Zero), nil
	}

	base := lo.Reduce(assets, func(acc decimal.Decimal, a domain.Asset, _ int) decimal.Decimal {
		return acc.Add(ToBase(a, rates))
	}, decimal.Zero)

	return Convert(base, domain.BaseCurrency, target, rates), nil
}

// resolveTarget checks that target can be valued, borrowing its rate from the
// bootstrap regime when rates lack it.
func resolveTarget(target string, rates domain.RateMap) (domain.RateMap, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty target currency", ErrUnknownCurrency)
	}
	if target == domain.BaseCurrency || rates.Has(target) {
		return rates, nil
	}
	if !rate.Bootstrap.Rates.Has(target) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, target)
	}
	slog.Warn("target currency missing from regime, using bootstrap rate", "currency", target)
	merged := rates.Clone()
	merged[target] = rate.Bootstrap.Rates[target]
	return merged, nil
}
