package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-task-tracker/internal/model"
	"go-task-tracker/internal/service"
)

// AuditHandler exposes the admin-only audit trail query endpoint.
type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := model.AuditQuery{
		Action: strings.TrimSpace(q.Get("action")),
		Status: strings.TrimSpace(q.Get("status")),
		From:   strings.TrimSpace(q.Get("from")),
		To:     strings.TrimSpace(q.Get("to")),
	}

	if v, err := strconv.ParseInt(q.Get("actor_id"), 10, 64); err == nil && v > 0 {
		query.ActorID = v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		query.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		query.Limit = v
	}

	entries, meta, err := h.service.Query(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, entries, meta)
}
