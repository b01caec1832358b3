package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/quoterequest"
)

type QuoteHandler struct {
	svc *quoterequest.Service
}

func NewQuoteHandler(svc *quoterequest.Service) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

func quoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quoterequest.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quoterequest.ErrNotFound):
		writeError(w, http.StatusNotFound, "Quote not found")
	default:
		slog.ErrorContext(r.Context(), "quote request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *QuoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req quoterequest.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	q, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		quoteError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, q, "Quote submitted!")
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	qs, err := h.svc.List(r.Context())
	if err != nil {
		quoteError(w, r, err)
		return
	}
	if qs == nil {
		qs = []models.QuoteRequest{}
	}
	writeSuccess(w, http.StatusOK, qs, "")
}

func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid quote ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	q, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		quoteError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, q, "Quote status updated")
}
