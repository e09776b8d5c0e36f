package api

import (
	"net/http"

	"github.com/erazemk/magicvilla/internal/villa"
)

// NewRouter creates the API router with all endpoints registered. metrics,
// if non-nil, is served at /metrics.
func NewRouter(svc *villa.Service, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	villas := &VillasHandler{Service: svc}

	mux.HandleFunc("GET /api/villa", villas.List)
	mux.HandleFunc("POST /api/villa", villas.Create)
	mux.HandleFunc("GET /api/villa/{id}", villas.Get)
	mux.HandleFunc("PUT /api/villa/{id}", villas.Replace)
	mux.HandleFunc("PATCH /api/villa/{id}", villas.Patch)
	mux.HandleFunc("DELETE /api/villa/{id}", villas.Delete)
	mux.HandleFunc("PUT /api/villa/{id}/image", villas.UploadImage)
	mux.HandleFunc("GET /api/villa/{id}/image", villas.GetImage)

	mux.HandleFunc("GET /healthz", villas.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}
