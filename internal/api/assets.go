package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/wealthlog/wealthlog/internal/domain"
)

// assetRequest is the create body. LocalDate is the caller's calendar day and
// decides which snapshot the change lands in.
type assetRequest struct {
	domain.Asset
	LocalDate string `json:"localDate"`
}

// assetPatch carries only the fields being changed.
type assetPatch struct {
	GroupID     *int64           `json:"groupId"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Owner       *string          `json:"owner"`
	Icon        *string          `json:"icon"`
	Type        *string          `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	Currency    *string          `json:"currency"`
	NotCounted  *bool            `json:"notCounted"`
	LocalDate   string           `json:"localDate"`
}

func (p assetPatch) apply(a domain.Asset) domain.Asset {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	if p.GroupID != nil {
		a.GroupID = *p.GroupID
	}
	set(&a.Name, p.Name)
	set(&a.Description, p.Description)
	set(&a.Owner, p.Owner)
	set(&a.Icon, p.Icon)
	set(&a.Type, p.Type)
	set(&a.Currency, p.Currency)
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.NotCounted != nil {
		a.NotCounted = *p.NotCounted
	}
	return a
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}

	assets, err := h.svc.Assets.ListByGroup(r.Context(), gid)
	if err != nil {
		writeServiceError(w, "list assets", err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// CreateAsset handles POST /api/v1/assets.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.svc.Assets.Create(r.Context(), req.Asset, req.LocalDate)
	if err != nil {
		writeServiceError(w, "create asset", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateAsset handles PATCH /api/v1/assets/{id}.
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	var patch assetPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	current, err := h.svc.Assets.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get asset", err)
		return
	}

	updated, err := h.svc.Assets.Update(r.Context(), patch.apply(current), patch.LocalDate)
	if err != nil {
		writeServiceError(w, "update asset", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAsset handles DELETE /api/v1/assets/{id}?local_date=.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	if err := h.svc.Assets.Delete(r.Context(), id, r.URL.Query().Get("local_date")); err != nil {
		writeServiceError(w, "delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAssetTypes handles GET /api/v1/asset-types.
func (h *Handler) ListAssetTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.AssetTypes)
}
