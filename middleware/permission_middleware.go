package middleware

import (
	"context"
	"net/http"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/services"
	"go.uber.org/zap"
)

// PermissionChecker answers grant lookups for a principal
type PermissionChecker interface {
	HasPermission(ctx context.Context, p auth.Principal, name string) bool
}

// PermissionMiddleware guards mutating routes with a named permission
type PermissionMiddleware struct {
	checker PermissionChecker
	logger  *zap.Logger
}

// NewPermissionMiddleware creates a new PermissionMiddleware
func NewPermissionMiddleware(checker PermissionChecker, logger *zap.Logger) *PermissionMiddleware {
	return &PermissionMiddleware{
		checker: checker,
		logger:  logger,
	}
}

// Require rejects the request with 403 unless the principal holds
// permission. It runs after RequireAuth and RequireTenant.
func (m *PermissionMiddleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			principal, ok := GetPrincipalFromContext(ctx)
			if !ok {
				m.logger.Error("principal not found in context", zap.String("request_id", requestID))
				writeAuthError(w, services.ErrUnauthenticated)
				return
			}

			if !m.checker.HasPermission(ctx, principal, permission) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("user_id", principal.UserID.String()),
					zap.String("tenant_id", principal.TenantID.String()),
					zap.String("permission", permission))
				writeAuthError(w, services.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
