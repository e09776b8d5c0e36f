package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/magicvilla/internal/imaging"
	"github.com/erazemk/magicvilla/internal/model"
	"github.com/erazemk/magicvilla/internal/patch"
	"github.com/erazemk/magicvilla/internal/villa"
)

// VillasHandler handles villa endpoints.
type VillasHandler struct {
	Service *villa.Service
}

// List handles GET /api/villa.
func (h *VillasHandler) List(w http.ResponseWriter, r *http.Request) {
	villas, err := h.Service.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, villas)
}

// Get handles GET /api/villa/{id}.
func (h *VillasHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.Service.Get(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// Create handles POST /api/villa. An empty or null body reaches the service
// as a missing body.
func (h *VillasHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in *model.VillaCreateDTO
	if err := decodeJSON(r, &in); err != nil {
		malformedBody(w, err)
		return
	}

	v, err := h.Service.Create(r.Context(), in)
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/villa/%d", v.ID))
	jsonResponse(w, http.StatusCreated, v)
}

// Replace handles PUT /api/villa/{id}.
func (h *VillasHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in *model.VillaUpdateDTO
	if err := decodeJSON(r, &in); err != nil {
		malformedBody(w, err)
		return
	}

	if err := h.Service.Replace(r.Context(), id, in); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Patch handles PATCH /api/villa/{id} with a JSON Patch document.
func (h *VillasHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var doc patch.Document
	if err := decodeJSON(r, &doc); err != nil {
		malformedBody(w, err)
		return
	}

	if err := h.Service.Patch(r.Context(), id, doc); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/villa/{id}.
func (h *VillasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles PUT /api/villa/{id}/image.
func (h *VillasHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	// Leave room for the multipart envelope around the photo.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form",
			villa.Problem{Field: "image", Reason: villa.ReasonInvalidImage, Message: err.Error()})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required",
			villa.Problem{Field: "image", Reason: villa.ReasonInvalidImage, Message: "multipart field \"image\" is required"})
		return
	}
	defer file.Close()

	v, err := h.Service.SetImage(r.Context(), id, file)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, v)
}

// GetImage handles GET /api/villa/{id}/image.
func (h *VillasHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	data, mime, err := h.Service.Image(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Health handles GET /healthz.
func (h *VillasHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Service.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
