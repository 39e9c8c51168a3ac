package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/services"
	"go.uber.org/zap"
)

// TenantHeader selects the tenant a request targets
const TenantHeader = "X-Tenant-Id"

// SessionCookieName is set by the login handler. The Authorization header
// takes precedence when both are present.
const SessionCookieName = "session"

// authTokenCookieName is accepted for clients that store the token themselves
const authTokenCookieName = "auth_token"

// AuthMiddleware resolves the request principal from a bearer token
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier auth.TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// RequireAuth is a middleware that requires a valid token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Debug("missing token", zap.String("request_id", requestID))
			writeAuthError(w, services.ErrUnauthenticated)
			return
		}

		principal, err := m.verifier.Verify(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			writeAuthError(w, services.ErrInvalidToken)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", principal.UserID.String()),
			zap.String("tenant_id", principal.TenantID.String()))

		next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
	})
}

// RequireTenant checks the principal's tenant against the X-Tenant-Id
// header. It must run after RequireAuth. A header naming another tenant is
// refused before any query runs.
func (m *AuthMiddleware) RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		principal, ok := GetPrincipalFromContext(ctx)
		if !ok {
			m.logger.Error("principal not found in context", zap.String("request_id", requestID))
			writeAuthError(w, services.ErrUnauthenticated)
			return
		}

		if !principal.HasTenant() {
			m.logger.Warn("principal has no tenant",
				zap.String("request_id", requestID),
				zap.String("user_id", principal.UserID.String()))
			writeAuthError(w, services.ErrNoTenant)
			return
		}

		if raw := strings.TrimSpace(r.Header.Get(TenantHeader)); raw != "" {
			requested, err := uuid.Parse(raw)
			if err != nil {
				writeAuthError(w, services.ErrInvalidTenant)
				return
			}
			if requested != principal.TenantID {
				m.logger.Warn("cross-tenant request refused",
					zap.String("request_id", requestID),
					zap.String("user_id", principal.UserID.String()),
					zap.String("tenant_id", principal.TenantID.String()),
					zap.String("requested_tenant_id", requested.String()))
				writeAuthError(w, services.ErrTenantMismatch)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithTenantID(ctx, principal.TenantID)))
	})
}

// TenantResolver picks the tenant for unauthenticated routes
type TenantResolver struct {
	defaultTenant uuid.UUID
}

// NewTenantResolver creates a resolver falling back to defaultTenant
func NewTenantResolver(defaultTenant uuid.UUID) *TenantResolver {
	return &TenantResolver{defaultTenant: defaultTenant}
}

// ResolveTenant reads X-Tenant-Id or falls back to the default tenant.
// A malformed header is a 400.
func (t *TenantResolver) ResolveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := t.defaultTenant
		if raw := strings.TrimSpace(r.Header.Get(TenantHeader)); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil || parsed == uuid.Nil {
				writeAuthError(w, services.ErrInvalidTenant)
				return
			}
			tenantID = parsed
		}

		next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), tenantID)))
	})
}

// extractToken extracts the token from the Authorization header ("Bearer TOKEN")
// or from the session/auth_token cookie.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	for _, name := range []string{SessionCookieName, authTokenCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
