package handlers

import (
	"context"
	"net/http"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/services"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// CreateCodeSetRequest represents a request to create a code set
type CreateCodeSetRequest struct {
	Code        string `json:"code" validate:"required,max=50,code"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

// CodeSetService defines the code set operations used by the handler
type CodeSetService interface {
	List(ctx context.Context, p auth.Principal) ([]*models.CodeSet, error)
	Create(ctx context.Context, p auth.Principal, in services.CreateCodeSetInput) (*models.CodeSet, error)
}

// CodeSetHandler handles code set HTTP requests
type CodeSetHandler struct {
	service CodeSetService
	logger  *zap.Logger
}

// NewCodeSetHandler creates a new CodeSetHandler
func NewCodeSetHandler(service CodeSetService, logger *zap.Logger) *CodeSetHandler {
	return &CodeSetHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListCodeSets handles GET /api/codesets
func (h *CodeSetHandler) HandleListCodeSets(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	codeSets, err := h.service.List(r.Context(), p)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, nonNil(codeSets))
}

// HandleCreateCodeSet handles POST /api/codesets
func (h *CodeSetHandler) HandleCreateCodeSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateCodeSetRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	cs, err := h.service.Create(ctx, p, services.CreateCodeSetInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		RequestID:   requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("code set created",
		zap.String("request_id", requestID),
		zap.String("tenant_id", p.TenantID.String()),
		zap.String("code", cs.Code))

	_ = utils.WriteCreated(w, cs)
}
