package rate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// DateLayout is the calendar-day format used for effective dates.
const DateLayout = "2006-01-02"

// Regime is a set of rates effective from EffectiveDate onward.
type Regime struct {
	ID            int64          `json:"id"`
	EffectiveDate time.Time      `json:"date"`
	Base          string         `json:"base"`
	Rates         domain.RateMap `json:"rates"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Payload is the stored JSON form of a regime: {"base": "CNY", "rates": {"USD": 0.1368}}.
type Payload struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Bootstrap is used whenever no stored regime covers the requested time.
var Bootstrap = Regime{
	Base: domain.BaseCurrency,
	Rates: domain.RateMap{
		"CNY": decimal.NewFromInt(1),
		"USD": decimal.RequireFromString("0.1368"),
		"EUR": decimal.RequireFromString("0.1326"),
		"GBP": decimal.RequireFromString("0.1104"),
		"JPY": decimal.RequireFromString("20.7843"),
	},
}

// EncodePayload serializes rates into the stored payload form.
// Payload rates are float64, so a rate carrying more digits than a float64
// holds is stored rounded to the nearest float.
func EncodePayload(rates domain.RateMap) (json.RawMessage, error) {
	p := Payload{Base: domain.BaseCurrency, Rates: make(map[string]float64, len(rates))}
	for code, r := range rates {
		f, _ := r.Float64()
		if !decimal.NewFromFloat(f).Equal(r) {
			slog.Debug("rate rounded to float precision", "currency", code, "rate", r.String(), "stored", f)
		}
		p.Rates[code] = f
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling rates payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses a stored payload. Non-positive rates are dropped.
func DecodePayload(data []byte) (domain.RateMap, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing rates payload: %w", err)
	}
	rates := make(domain.RateMap, len(p.Rates))
	for code, f := range p.Rates {
		if f <= 0 {
			continue
		}
		rates[domain.NormalizeCode(code)] = decimal.NewFromFloat(f)
	}
	rates[domain.BaseCurrency] = decimal.NewFromInt(1)
	return rates, nil
}

// Invert turns base-per-currency input (how users usually type rates, e.g.
// "1 USD = 7.3 CNY") into the stored currency-per-base form.
// Non-positive values are dropped.
func Invert(values map[string]decimal.Decimal) domain.RateMap {
	out := make(domain.RateMap, len(values))
	one := decimal.NewFromInt(1)
	for code, v := range values {
		if !v.IsPositive() {
			continue
		}
		out[domain.NormalizeCode(code)] = one.Div(v)
	}
	return out
}

// AsOf returns the latest regime in sorted whose EffectiveDate is not after t,
// or Bootstrap when t precedes all of them. sorted must be ascending by date.
func AsOf(sorted []Regime, t time.Time) Regime {
	i := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].EffectiveDate.After(t)
	})
	if i == 0 {
		return Bootstrap
	}
	return sorted[i-1]
}

// ParseDate parses a YYYY-MM-DD day into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// Day truncates t to UTC midnight of its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
