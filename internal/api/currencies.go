package api

import (
	"net/http"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// ListCurrencies handles GET /api/v1/currencies.
func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.svc.Currencies.List(r.Context())
	if err != nil {
		writeServiceError(w, "list currencies", err)
		return
	}
	writeJSON(w, http.StatusOK, currencies)
}

// CreateCurrency handles POST /api/v1/currencies.
func (h *Handler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var c domain.Currency
	if !decodeBody(w, r, &c) {
		return
	}

	created, err := h.svc.Currencies.Create(r.Context(), c)
	if err != nil {
		writeServiceError(w, "create currency", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteCurrency handles DELETE /api/v1/currencies/{code}.
func (h *Handler) DeleteCurrency(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Currencies.Delete(r.Context(), r.PathValue("code")); err != nil {
		writeServiceError(w, "delete currency", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
