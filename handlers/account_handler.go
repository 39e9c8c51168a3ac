package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/middleware"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/utils"
	"go.uber.org/zap"
)

// UserLister lists the accounts visible to a principal
type UserLister interface {
	List(ctx context.Context, p auth.Principal) ([]*models.UserAccount, error)
}

// CurrentUser identifies the caller in API responses
type CurrentUser struct {
	UserID      uuid.UUID     `json:"userId"`
	Email       string        `json:"email"`
	TenantID    uuid.UUID     `json:"tenantId"`
	DisplayName string        `json:"displayName,omitempty"`
	Provider    auth.Provider `json:"provider,omitempty"`
}

// DashboardResponse is the landing payload for an authenticated session
type DashboardResponse struct {
	Message   string      `json:"message"`
	Principal CurrentUser `json:"principal"`
}

// SecurityUsersResponse lists the tenant's accounts next to the caller
type SecurityUsersResponse struct {
	CurrentUser CurrentUser           `json:"currentUser"`
	Users       []*models.UserAccount `json:"users"`
}

// AccountHandler serves the caller's own view of the tenant
type AccountHandler struct {
	users  UserLister
	logger *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(users UserLister, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		users:  users,
		logger: logger,
	}
}

// HandleDashboard handles GET /dashboard
func (h *AccountHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	name := p.DisplayName
	if name == "" {
		name = p.Email
	}

	_ = utils.WriteOK(w, DashboardResponse{
		Message:   fmt.Sprintf("Welcome, %s", name),
		Principal: currentUser(p),
	})
}

// HandleListUsers handles GET /api/security/users
func (h *AccountHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	users, err := h.users.List(r.Context(), p)
	if err != nil {
		h.logger.Error("failed to list users",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("tenant_id", p.TenantID.String()),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, SecurityUsersResponse{
		CurrentUser: currentUser(p),
		Users:       nonNil(users),
	})
}

func currentUser(p auth.Principal) CurrentUser {
	return CurrentUser{
		UserID:      p.UserID,
		Email:       p.Email,
		TenantID:    p.TenantID,
		DisplayName: p.DisplayName,
		Provider:    p.Provider,
	}
}

// nonNil keeps empty lists encoded as [] instead of null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
