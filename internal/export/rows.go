package export

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/series"
)

// buildSeriesRows builds the SERIES sheet.
// Columns: Date | Total | Offset | Gap
// Gap markers keep their row so charts show the missing days.
func buildSeriesRows(s series.Series) [][]any {
	data := make([][]any, 0, len(s.Points)+1)
	data = append(data, []any{"Date", "Total " + s.Currency, "Offset", "Gap"})

	for _, p := range s.Points {
		gap := 0
		if p.Gap {
			gap = 1
		}
		data = append(data, []any{p.Date, ptrFloat(p.Total), ptrFloat(p.Offset), gap})
	}
	return data
}

// buildAssetRows builds the ASSETS sheet from the latest valued point.
// Columns: Name | Type | Currency | Amount | Offset | Status
func buildAssetRows(s series.Series) [][]any {
	data := [][]any{
		{"Name", "Type", "Currency", "Amount", "Offset", "Status"},
	}

	values := s.Values()
	if len(values) == 0 {
		return data
	}

	rows := lo.Map(values[len(values)-1].Assets, func(a series.AssetDelta, _ int) []any {
		status := ""
		switch {
		case a.New:
			status = "new"
		case a.Removed:
			status = "removed"
		}
		return []any{
			a.Name, a.Type, a.Currency,
			toFloat(a.Amount), toFloat(a.Offset),
			status,
		}
	})
	return append(data, rows...)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
