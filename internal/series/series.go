// Package series turns stored snapshots into a chart-ready time series.
//
// Two different notions of "duplicate" exist in the system and are kept apart:
// the snapshot writer keeps one row per group and calendar day, while this
// package drops consecutive points whose total did not change.
package series

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/rate"
	"github.com/wealthlog/wealthlog/internal/snapshot"
	"github.com/wealthlog/wealthlog/internal/valuation"
)

var (
	// ErrMalformedPayload marks a snapshot whose data is not an asset array.
	// Such snapshots are skipped; the error is only logged.
	ErrMalformedPayload = errors.New("malformed snapshot payload")
	// ErrInvalidRange is returned for an unparsable From/To bound.
	ErrInvalidRange = errors.New("invalid date range")
)

// RateSource resolves the regime in effect at a point in time.
type RateSource interface {
	RegimeAsOf(ctx context.Context, t time.Time) (rate.Regime, error)
}

// AssetDelta is one asset's value at a point and its change since the previous point,
// both in the asset's own currency.
type AssetDelta struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Type     string          `json:"type,omitempty"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Offset   decimal.Decimal `json:"offset"`
	New      bool            `json:"new,omitempty"`
	Removed  bool            `json:"removed,omitempty"`
}

// Point is one day of the series. Gap markers carry only a date.
type Point struct {
	Date   string           `json:"date"`
	Total  *decimal.Decimal `json:"total,omitempty"`
	Offset *decimal.Decimal `json:"offset,omitempty"`
	Assets []AssetDelta     `json:"assets,omitempty"`
	Gap    bool             `json:"gap,omitempty"`
}

// Series is the normalized output, oldest first.
type Series struct {
	Currency string  `json:"currency"`
	Points   []Point `json:"points"`
}

// Values returns only the valued points, for renderers that bridge gaps themselves.
func (s Series) Values() []Point {
	return slices.DeleteFunc(slices.Clone(s.Points), func(p Point) bool { return p.Gap })
}

// Request describes the series to build.
type Request struct {
	Target string
	From   string // YYYY-MM-DD inclusive, empty for open
	To     string // YYYY-MM-DD inclusive, empty for open

	// Filter applies a display policy (e.g. hide not-counted assets). Nil keeps all.
	Filter func(domain.Asset) bool
}

// Normalizer builds series from snapshots.
type Normalizer struct {
	rates RateSource
	now   func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(rates RateSource) *Normalizer {
	return &Normalizer{rates: rates, now: time.Now}
}

type valuedPoint struct {
	date   time.Time
	total  decimal.Decimal
	assets []domain.Asset
	rates  domain.RateMap
}

// Build normalizes snapshots into a series in req.Target. Problems with a
// single snapshot never fail the whole series: unparsable payloads are skipped
// and missing rates count as 1. Only an unknown target currency or an invalid
// range is returned as an error.
func (n *Normalizer) Build(ctx context.Context, snapshots []snapshot.Snapshot, req Request) (Series, error) {
	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return Series{}, err
	}

	latest, err := n.rates.RegimeAsOf(ctx, n.now())
	if err != nil {
		slog.Warn("rate history unavailable, using bootstrap regime", "error", err)
	}
	if _, err := valuation.Total(nil, req.Target, latest.Rates); err != nil {
		return Series{}, err
	}

	ordered := slices.Clone(snapshots)
	slices.SortStableFunc(ordered, func(a, b snapshot.Snapshot) int {
		return strings.Compare(a.Date, b.Date)
	})

	var retained []valuedPoint
	for _, s := range ordered {
		vp, ok := n.value(ctx, s, req)
		if !ok {
			continue
		}
		if (from != nil && vp.date.Before(*from)) || (to != nil && vp.date.After(*to)) {
			continue
		}
		if len(retained) > 0 && retained[len(retained)-1].total.Equal(vp.total) {
			continue
		}
		retained = append(retained, vp)
	}

	return Series{Currency: req.Target, Points: expand(retained)}, nil
}

// value parses and totals one snapshot. ok is false when the snapshot must be skipped.
func (n *Normalizer) value(ctx context.Context, s snapshot.Snapshot, req Request) (valuedPoint, bool) {
	date, err := rate.ParseDate(s.Date)
	if err != nil {
		slog.Warn("skipping snapshot with bad date", "id", s.ID, "date", s.Date, "error", err)
		return valuedPoint{}, false
	}

	assets, err := decodeAssets(s.Data)
	if err != nil {
		slog.Warn("skipping snapshot", "id", s.ID, "date", s.Date, "error", err)
		return valuedPoint{}, false
	}
	if req.Filter != nil {
		assets = slices.DeleteFunc(assets, func(a domain.Asset) bool { return !req.Filter(a) })
	}

	regime, err := n.rates.RegimeAsOf(ctx, date)
	if err != nil {
		slog.Warn("rate lookup failed, using bootstrap regime", "date", s.Date, "error", err)
	}
	// Base amounts cached at write time are stale if the regime changed since.
	if regime.UpdatedAt.After(s.UpdatedAt) {
		assets = valuation.WithoutBaseAmounts(assets)
	}

	rates := regime.Rates
	total, err := valuation.Total(assets, req.Target, rates)
	if err != nil {
		slog.Warn("target currency unknown at snapshot date, using rate 1", "date", s.Date, "currency", req.Target)
		rates = rates.Clone()
		rates[req.Target] = decimal.NewFromInt(1)
		total, _ = valuation.Total(assets, req.Target, rates)
	}

	return valuedPoint{date: date, total: total, assets: assets, rates: rates}, true
}

// expand emits retained points with offsets and fills multi-day gaps with markers.
func expand(retained []valuedPoint) []Point {
	points := make([]Point, 0, len(retained))
	for i, cur := range retained {
		total := cur.total
		p := Point{Date: cur.date.Format(rate.DateLayout), Total: &total}

		if i == 0 {
			p.Assets = diffAssets(cur.assets, nil, cur.rates, true)
			points = append(points, p)
			continue
		}

		prev := retained[i-1]
		for d := prev.date.AddDate(0, 0, 1); d.Before(cur.date); d = d.AddDate(0, 0, 1) {
			points = append(points, Point{Date: d.Format(rate.DateLayout), Gap: true})
		}

		offset := cur.total.Sub(prev.total)
		p.Offset = &offset
		p.Assets = diffAssets(cur.assets, prev.assets, cur.rates, false)
		points = append(points, p)
	}
	return points
}

// diffAssets computes per-asset offsets of cur against prev, largest movers first.
func diffAssets(cur, prev []domain.Asset, rates domain.RateMap, first bool) []AssetDelta {
	prevByID := make(map[int64]domain.Asset, len(prev))
	for _, a := range prev {
		prevByID[a.ID] = a
	}

	deltas := make([]AssetDelta, 0, len(cur)+len(prev))
	seen := make(map[int64]bool, len(cur))
	for _, a := range cur {
		seen[a.ID] = true
		amount := valuation.Convert(a.Amount, a.Currency, a.Currency, rates)
		delta := AssetDelta{ID: a.ID, Name: a.Name, Type: a.Type, Currency: a.Currency, Amount: amount}

		switch old, ok := prevByID[a.ID]; {
		case first:
			delta.Offset = decimal.Zero
		case ok:
			delta.Offset = amount.Sub(valuation.Convert(old.Amount, old.Currency, a.Currency, rates))
		default:
			delta.Offset = amount
			delta.New = true
		}
		deltas = append(deltas, delta)
	}

	for _, old := range prev {
		if seen[old.ID] {
			continue
		}
		deltas = append(deltas, AssetDelta{
			ID:       old.ID,
			Name:     old.Name,
			Type:     old.Type,
			Currency: old.Currency,
			Amount:   decimal.Zero,
			Offset:   valuation.Convert(old.Amount, old.Currency, old.Currency, rates).Neg(),
			Removed:  true,
		})
	}

	slices.SortStableFunc(deltas, func(a, b AssetDelta) int {
		return b.Offset.Abs().Cmp(a.Offset.Abs())
	})
	return deltas
}

func decodeAssets(data json.RawMessage) ([]domain.Asset, error) {
	var assets []domain.Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return assets, nil
}

func parseRange(from, to string) (*time.Time, *time.Time, error) {
	var fromT, toT *time.Time
	if from != "" {
		t, err := rate.ParseDate(from)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		fromT = &t
	}
	if to != "" {
		t, err := rate.ParseDate(to)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		toT = &t
	}
	if fromT != nil && toT != nil && toT.Before(*fromT) {
		return nil, nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from, to)
	}
	return fromT, toT, nil
}
