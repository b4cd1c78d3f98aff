package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/series"
	"github.com/wealthlog/wealthlog/internal/valuation"
)

type totalResponse struct {
	GroupID  int64           `json:"groupId"`
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Assets   int             `json:"assets"`
}

func targetCurrency(r *http.Request) string {
	if c := domain.NormalizeCode(r.URL.Query().Get("currency")); c != "" {
		return c
	}
	return domain.BaseCurrency
}

// GetTotal handles GET /api/v1/total. The live asset list is valued at the
// latest rates.
func (h *Handler) GetTotal(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}

	assets, err := h.svc.Assets.ListByGroup(r.Context(), gid)
	if err != nil {
		writeServiceError(w, "list assets", err)
		return
	}
	if countedOnly(r) {
		assets = slices.DeleteFunc(assets, func(a domain.Asset) bool { return !domain.Counted(a) })
	}

	rates, err := h.svc.Rates.Latest(r.Context())
	if err != nil {
		slog.Warn("rate history unavailable, valuing at bootstrap rates", "error", err)
	}

	target := targetCurrency(r)
	total, err := valuation.Total(assets, target, rates)
	if err != nil {
		writeServiceError(w, "total", err)
		return
	}

	writeJSON(w, http.StatusOK, totalResponse{
		GroupID:  gid,
		Currency: target,
		Total:    total,
		Assets:   len(assets),
	})
}

// GetSeries handles GET /api/v1/series.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}
	from, to, ok := dateRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	snaps, err := h.svc.Snapshots.List(r.Context(), gid, from, to)
	if err != nil {
		writeServiceError(w, "list snapshots", err)
		return
	}

	q := r.URL.Query()
	req := series.Request{Target: targetCurrency(r), From: q.Get("from"), To: q.Get("to")}
	if countedOnly(r) {
		req.Filter = domain.Counted
	}

	s, err := h.svc.Series.Build(r.Context(), snaps, req)
	if err != nil {
		writeServiceError(w, "build series", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
