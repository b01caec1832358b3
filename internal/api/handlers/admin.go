package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/bodyshop/internal/audit"
	"github.com/nikhilbhutani/bodyshop/internal/models"
)

type AdminHandler struct {
	auditSvc *audit.Service
}

func NewAdminHandler(auditSvc *audit.Service) *AdminHandler {
	return &AdminHandler{auditSvc: auditSvc}
}

func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := audit.Query{
		Action: r.URL.Query().Get("action"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	if s := r.URL.Query().Get("resource_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid resource_id")
			return
		}
		q.ResourceID = &id
	}

	logs, err := h.auditSvc.List(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "list audit logs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	writeSuccess(w, http.StatusOK, logs, "")
}
