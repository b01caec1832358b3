package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/bodyshop/internal/invoice"
	"github.com/nikhilbhutani/bodyshop/internal/models"
)

type InvoiceHandler struct {
	svc *invoice.Service
}

func NewInvoiceHandler(svc *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// invoiceError maps service errors onto HTTP statuses. Storage and conflict
// failures share one generic message; the detail goes to the log.
func invoiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invoice.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, "Invalid document type")
	case errors.Is(err, invoice.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, invoice.ErrNotFound):
		writeError(w, http.StatusNotFound, "Invoice not found")
	default:
		slog.ErrorContext(r.Context(), "invoice request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.svc.List(r.Context(), invoice.ListFilter{
		Kind:   models.DocumentKind(q.Get("type")),
		Status: q.Get("status"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	})
	if err != nil {
		invoiceError(w, r, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	writeSuccess(w, http.StatusOK, docs, "")
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invoice.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	doc, err := h.svc.Create(r.Context(), req)
	if err != nil {
		invoiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, doc, "Invoice created successfully!")
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		invoiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, doc, "")
}

func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	var req invoice.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	doc, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		invoiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, doc, "Invoice updated successfully!")
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		invoiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil, "Invoice deleted successfully!")
}

type convertRequest struct {
	NewType models.DocumentKind `json:"newType"`
}

func (h *InvoiceHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	res, err := h.svc.Convert(r.Context(), id, req.NewType)
	if err != nil {
		invoiceError(w, r, err)
		return
	}

	msg := "Document already exists in the requested type"
	if res.Created {
		msg = "Document converted successfully!"
	}
	writeJSON(w, http.StatusOK, successBody{
		Status:   "success",
		Message:  msg,
		Data:     res.Document,
		Warnings: res.Warnings,
	})
}
