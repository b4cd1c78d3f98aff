package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the reference currency every rate is normalized against.
const BaseCurrency = "CNY"

// RateMap maps a currency code to units of that currency per one unit of BaseCurrency.
type RateMap map[string]decimal.Decimal

// Clone returns an independent copy of the map.
func (m RateMap) Clone() RateMap {
	out := make(RateMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Has reports whether the map carries a usable (positive) rate for code.
func (m RateMap) Has(code string) bool {
	r, ok := m[code]
	return ok && r.IsPositive()
}

// Currency describes a registered currency or store of value.
type Currency struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Unit   string `json:"unit,omitempty"` // e.g. "g" for metals; empty for money
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
