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

// CreateRoleRequest represents a request to create a role
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// RoleService defines the role operations used by the handler
type RoleService interface {
	List(ctx context.Context, p auth.Principal) ([]*models.Role, error)
	Create(ctx context.Context, p auth.Principal, in services.CreateRoleInput) (*models.Role, error)
}

// RoleHandler handles role HTTP requests
type RoleHandler struct {
	service RoleService
	logger  *zap.Logger
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(service RoleService, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		service: service,
		logger:  logger,
	}
}

// HandleListRoles handles GET /api/roles
func (h *RoleHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	roles, err := h.service.List(r.Context(), p)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, nonNil(roles))
}

// HandleCreateRole handles POST /api/roles
func (h *RoleHandler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	role, err := h.service.Create(ctx, p, services.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		RequestID:   requestID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("role created",
		zap.String("request_id", requestID),
		zap.String("tenant_id", p.TenantID.String()),
		zap.String("role_id", role.ID.String()))

	_ = utils.WriteCreated(w, role)
}
