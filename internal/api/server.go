package api

import (
	"net/http"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, svc Services) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter registers every route on a fresh mux.
func NewRouter(svc Services) *http.ServeMux {
	h := NewHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.Health)

	mux.HandleFunc("GET /api/v1/assets", h.ListAssets)
	mux.HandleFunc("POST /api/v1/assets", h.CreateAsset)
	mux.HandleFunc("PATCH /api/v1/assets/{id}", h.UpdateAsset)
	mux.HandleFunc("DELETE /api/v1/assets/{id}", h.DeleteAsset)
	mux.HandleFunc("GET /api/v1/asset-types", h.ListAssetTypes)

	mux.HandleFunc("GET /api/v1/groups", h.ListGroups)
	mux.HandleFunc("POST /api/v1/groups", h.CreateGroup)
	mux.HandleFunc("GET /api/v1/groups/default", h.GetDefaultGroup)
	mux.HandleFunc("POST /api/v1/groups/default", h.SetDefaultGroup)
	mux.HandleFunc("PATCH /api/v1/groups/{id}", h.RenameGroup)
	mux.HandleFunc("DELETE /api/v1/groups/{id}", h.DeleteGroup)

	mux.HandleFunc("GET /api/v1/total", h.GetTotal)
	mux.HandleFunc("GET /api/v1/series", h.GetSeries)

	mux.HandleFunc("GET /api/v1/snapshots", h.ListSnapshots)
	mux.HandleFunc("GET /api/v1/snapshots/latest", h.GetLatestSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{date}", h.GetSnapshotByDate)

	mux.HandleFunc("GET /api/v1/rates", h.ListRates)
	mux.HandleFunc("GET /api/v1/rates/latest", h.GetLatestRates)
	mux.HandleFunc("GET /api/v1/rates/{date}", h.GetRatesByDate)
	mux.HandleFunc("PUT /api/v1/rates/{date}", h.PutRates)

	mux.HandleFunc("GET /api/v1/currencies", h.ListCurrencies)
	mux.HandleFunc("POST /api/v1/currencies", h.CreateCurrency)
	mux.HandleFunc("DELETE /api/v1/currencies/{code}", h.DeleteCurrency)

	return mux
}
