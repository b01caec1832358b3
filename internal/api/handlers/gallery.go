package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/bodyshop/internal/gallery"
	"github.com/nikhilbhutani/bodyshop/internal/models"
)

type GalleryHandler struct {
	svc *gallery.Service
}

func NewGalleryHandler(svc *gallery.Service) *GalleryHandler {
	return &GalleryHandler{svc: svc}
}

func galleryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gallery.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, gallery.ErrNotFound):
		writeError(w, http.StatusNotFound, "Gallery item not found")
	case errors.Is(err, gallery.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Image storage is not configured")
	default:
		slog.ErrorContext(r.Context(), "gallery request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *GalleryHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListPublic(r.Context())
	if err != nil {
		galleryError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, items, "")
}

func (h *GalleryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListAll(r.Context())
	if err != nil {
		galleryError(w, r, err)
		return
	}
	if items == nil {
		items = []models.GalleryItem{}
	}
	writeSuccess(w, http.StatusOK, items, "")
}

func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in gallery.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	item, err := h.svc.Create(r.Context(), in)
	if err != nil {
		galleryError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, item, "Gallery item created successfully")
}

func (h *GalleryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid gallery item ID")
		return
	}

	var in gallery.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	item, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		galleryError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, item, "Gallery item updated successfully")
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid gallery item ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		galleryError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Gallery item deleted successfully")
}

type uploadRequest struct {
	ImageData string `json:"imageData"`
	FileName  string `json:"fileName"`
}

func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	res, err := h.svc.UploadImage(r.Context(), chi.URLParam(r, "imageType"), req.ImageData, req.FileName)
	if err != nil {
		galleryError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, res, "Image uploaded successfully")
}
