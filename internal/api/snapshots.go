package api

import (
	"net/http"

	"github.com/wealthlog/wealthlog/internal/rate"
)

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}
	from, to, ok := dateRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	snapshots, err := h.svc.Snapshots.List(r.Context(), gid, from, to)
	if err != nil {
		writeServiceError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}

	s, err := h.svc.Snapshots.GetLatest(r.Context(), gid)
	if err != nil {
		writeServiceError(w, "latest snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}
	date, err := rate.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.svc.Snapshots.GetByDate(r.Context(), gid, date)
	if err != nil {
		writeServiceError(w, "snapshot by date", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
