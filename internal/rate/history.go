package rate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// ErrEmptyRates is returned when a regime would carry no usable rate.
var ErrEmptyRates = errors.New("rate regime has no rates")

// History answers point-in-time rate queries. Regimes are loaded once and kept
// until Invalidate is called; there is no time-based expiry.
type History struct {
	repo Repository
	now  func() time.Time

	mu      sync.RWMutex
	regimes []Regime // ascending by EffectiveDate, never mutated in place
	loaded  bool
	gen     uint64 // bumped by Invalidate; a load started under an older gen is discarded
}

// NewHistory creates a History backed by repo.
func NewHistory(repo Repository) *History {
	return &History{repo: repo, now: time.Now}
}

// Invalidate drops the cached regimes; the next query reloads them.
func (h *History) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regimes = nil
	h.loaded = false
	h.gen++
}

func (h *History) cached(ctx context.Context) ([]Regime, error) {
	for {
		h.mu.RLock()
		if h.loaded {
			regimes := h.regimes
			h.mu.RUnlock()
			return regimes, nil
		}
		gen := h.gen
		h.mu.RUnlock()

		regimes, err := h.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading rate regimes: %w", err)
		}
		slices.SortStableFunc(regimes, func(a, b Regime) int {
			return a.EffectiveDate.Compare(b.EffectiveDate)
		})

		h.mu.Lock()
		if h.gen != gen {
			// Invalidated while loading: the result may predate the edit.
			h.mu.Unlock()
			slog.Debug("rate regimes changed during load, reloading")
			continue
		}
		h.regimes = regimes
		h.loaded = true
		h.mu.Unlock()
		return regimes, nil
	}
}

// RegimeAsOf returns the regime effective at t. When storage is unavailable the
// Bootstrap regime is returned together with the error, so callers that prefer
// a best-effort answer can ignore it.
func (h *History) RegimeAsOf(ctx context.Context, t time.Time) (Regime, error) {
	regimes, err := h.cached(ctx)
	if err != nil {
		return Bootstrap, err
	}
	return AsOf(regimes, t), nil
}

// RateAsOf returns the rate map effective at t.
func (h *History) RateAsOf(ctx context.Context, t time.Time) (domain.RateMap, error) {
	reg, err := h.RegimeAsOf(ctx, t)
	return reg.Rates, err
}

// Latest returns the rate map effective now.
func (h *History) Latest(ctx context.Context) (domain.RateMap, error) {
	return h.RateAsOf(ctx, h.now())
}

// LatestRegime returns the regime effective now.
func (h *History) LatestRegime(ctx context.Context) (Regime, error) {
	return h.RegimeAsOf(ctx, h.now())
}

// Regimes returns every stored regime, oldest first.
func (h *History) Regimes(ctx context.Context) ([]Regime, error) {
	regimes, err := h.cached(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(regimes), nil
}

// OnDate returns the regime whose effective date is exactly date.
func (h *History) OnDate(ctx context.Context, date time.Time) (Regime, error) {
	regimes, err := h.cached(ctx)
	if err != nil {
		return Regime{}, err
	}
	day := Day(date)
	for _, reg := range regimes {
		if reg.EffectiveDate.Equal(day) {
			return reg, nil
		}
	}
	return Regime{}, ErrNotFound
}

// Set upserts the regime for date. rates must be in currency-per-base form;
// use Invert first for base-per-currency input.
func (h *History) Set(ctx context.Context, date time.Time, rates domain.RateMap) (Regime, error) {
	clean := make(domain.RateMap, len(rates)+1)
	for code, r := range rates {
		if r.IsPositive() {
			clean[domain.NormalizeCode(code)] = r
		}
	}
	if len(clean) == 0 {
		return Regime{}, ErrEmptyRates
	}

	payload, err := EncodePayload(clean)
	if err != nil {
		return Regime{}, err
	}

	reg, err := h.repo.Upsert(ctx, date, payload)
	if err != nil {
		return Regime{}, err
	}
	h.Invalidate()

	slog.Info("rate regime saved", "date", reg.EffectiveDate.Format(DateLayout), "currencies", len(reg.Rates))
	return reg, nil
}
