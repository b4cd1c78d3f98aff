package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/rate"
)

// rateRequest is the PUT body. With Inverted set, values are base-per-currency
// ("1 USD = 7.3 CNY") and are inverted before storing.
type rateRequest struct {
	Rates    map[string]decimal.Decimal `json:"rates"`
	Inverted bool                       `json:"inverted"`
}

// ListRates handles GET /api/v1/rates.
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	regimes, err := h.svc.Rates.Regimes(r.Context())
	if err != nil {
		writeServiceError(w, "list rates", err)
		return
	}
	if regimes == nil {
		regimes = []rate.Regime{}
	}
	writeJSON(w, http.StatusOK, regimes)
}

// GetLatestRates handles GET /api/v1/rates/latest. Without stored regimes the
// bootstrap regime is returned.
func (h *Handler) GetLatestRates(w http.ResponseWriter, r *http.Request) {
	regime, err := h.svc.Rates.LatestRegime(r.Context())
	if err != nil {
		writeServiceError(w, "latest rates", err)
		return
	}
	writeJSON(w, http.StatusOK, regime)
}

// GetRatesByDate handles GET /api/v1/rates/{date}.
func (h *Handler) GetRatesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := rate.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	regime, err := h.svc.Rates.OnDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, "rates by date", err)
		return
	}
	writeJSON(w, http.StatusOK, regime)
}

// PutRates handles PUT /api/v1/rates/{date}.
func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	date, err := rate.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	var req rateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rates := domain.RateMap(req.Rates)
	if req.Inverted {
		rates = rate.Invert(req.Rates)
	}

	regime, err := h.svc.Rates.Set(r.Context(), date, rates)
	if err != nil {
		writeServiceError(w, "set rates", err)
		return
	}
	writeJSON(w, http.StatusOK, regime)
}
