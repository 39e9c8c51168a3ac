package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/services"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// JournalService reads the audit log and the integration outbox
type JournalService interface {
	ListAuditLogs(ctx context.Context, p auth.Principal, page services.Page) ([]*models.AuditLog, error)
	ListOutboxEvents(ctx context.Context, p auth.Principal, status models.OutboxStatus, page services.Page) ([]*models.OutboxEvent, error)
}

// PageResponse wraps a listing with the page that produced it
type PageResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// JournalHandler handles audit log and outbox HTTP requests
type JournalHandler struct {
	service JournalService
	logger  *zap.Logger
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(service JournalService, logger *zap.Logger) *JournalHandler {
	return &JournalHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListAuditLogs handles GET /api/audit-logs
func (h *JournalHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	page, ok := h.parsePage(w, r)
	if !ok {
		return
	}

	logs, err := h.service.ListAuditLogs(r.Context(), p, page)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, PageResponse{Items: nonNil(logs), Limit: page.Limit, Offset: page.Offset})
}

// HandleListOutboxEvents handles GET /api/outbox-events
func (h *JournalHandler) HandleListOutboxEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	page, ok := h.parsePage(w, r)
	if !ok {
		return
	}
	status := models.OutboxStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))

	events, err := h.service.ListOutboxEvents(r.Context(), p, status, page)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, PageResponse{Items: nonNil(events), Limit: page.Limit, Offset: page.Offset})
}

func (h *JournalHandler) parsePage(w http.ResponseWriter, r *http.Request) (services.Page, bool) {
	limit, err := utils.QueryInt(r, "limit", services.DefaultPageLimit)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return services.Page{}, false
	}
	offset, err := utils.QueryInt(r, "offset", 0)
	if err != nil {
		HandleValidationError(w, err, h.logger)
		return services.Page{}, false
	}
	return services.NewPage(limit, offset), true
}
