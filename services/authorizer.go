package services

import (
	"context"

	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/observability"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// Authorizer evaluates permission grants. Every call is a fresh lookup;
// grants are never cached across requests.
type Authorizer struct {
	gateway     *tenancy.Gateway
	permissions repositories.PermissionRepository
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAuthorizer creates a new Authorizer. metrics may be nil.
func NewAuthorizer(gateway *tenancy.Gateway, permissions repositories.PermissionRepository, metrics *observability.Metrics, logger *zap.Logger) *Authorizer {
	return &Authorizer{
		gateway:     gateway,
		permissions: permissions,
		metrics:     metrics,
		logger:      logger,
	}
}

// HasPermission reports whether p holds name through a live grant chain.
// It never returns an error: missing tenant, anonymous principals and
// storage failures all answer false.
func (a *Authorizer) HasPermission(ctx context.Context, p auth.Principal, name string) bool {
	if !p.HasTenant() || p.IsAnonymous() {
		a.metrics.ObservePermission(name, false)
		return false
	}

	granted, err := tenancy.RunResult(ctx, a.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) (bool, error) {
		return a.permissions.UserHasPermission(ctx, conn, p.UserID, name)
	})
	if err != nil {
		a.logger.Error("permission lookup failed",
			zap.String("tenant_id", p.TenantID.String()),
			zap.String("user_id", p.UserID.String()),
			zap.String("permission", name),
			zap.Error(err))
		granted = false
	}

	a.metrics.ObservePermission(name, granted)
	return granted
}

// Require returns a forbidden error unless p holds name
func (a *Authorizer) Require(ctx context.Context, p auth.Principal, name string) error {
	if a.HasPermission(ctx, p, name) {
		return nil
	}
	return Wrap(ErrForbidden, nil).WithDetail("permission", name)
}
