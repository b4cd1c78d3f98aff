package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wealthlog/wealthlog/internal/asset"
	"github.com/wealthlog/wealthlog/internal/currency"
	"github.com/wealthlog/wealthlog/internal/group"
	"github.com/wealthlog/wealthlog/internal/rate"
	"github.com/wealthlog/wealthlog/internal/series"
	"github.com/wealthlog/wealthlog/internal/snapshot"
	"github.com/wealthlog/wealthlog/internal/valuation"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Assets     *asset.Service
	Currencies *currency.Service
	Groups     *group.Service
	Rates      *rate.History
	Snapshots  *snapshot.Service
	Series     *series.Normalizer
}

// Handler provides HTTP endpoints for the wealth API.
type Handler struct {
	svc Services
}

// NewHandler creates a new API handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	// An invalid asset may wrap group.ErrNotFound.
	case errors.Is(err, asset.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, asset.ErrNotFound),
		errors.Is(err, group.ErrNotFound),
		errors.Is(err, currency.ErrNotFound),
		errors.Is(err, snapshot.ErrNotFound),
		errors.Is(err, rate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, currency.ErrDuplicate),
		errors.Is(err, group.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, group.ErrInvalid),
		errors.Is(err, currency.ErrInvalid),
		errors.Is(err, rate.ErrEmptyRates),
		errors.Is(err, series.ErrInvalidRange),
		errors.Is(err, snapshot.ErrInvalidLocalDate),
		errors.Is(err, valuation.ErrUnknownCurrency):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the mapped status. Unexpected errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "op", op, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// groupID reads the group_id query parameter and resolves it to a stored
// group; an absent parameter selects the default group. On failure the error
// response is already written.
func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	if v := r.URL.Query().Get("group_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid group_id")
			return 0, false
		}
		id = n
	}

	resolved, err := h.svc.Groups.Resolve(r.Context(), id)
	if err != nil {
		writeServiceError(w, "resolve group", err)
		return 0, false
	}
	return resolved, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func countedOnly(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("counted_only"))
	return v
}

// dateRange reads optional from/to query parameters.
func dateRange(r *http.Request) (from, to *time.Time, ok bool) {
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"from", &from}, {"to", &to}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := rate.ParseDate(v)
		if err != nil {
			return nil, nil, false
		}
		*p.dst = &t
	}
	return from, to, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
