package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// userHasPermissionQuery walks user_role, role, role_permission and
// permission. A soft-deleted row anywhere on the path revokes the grant.
const userHasPermissionQuery = `
		SELECT EXISTS (
			SELECT 1
			FROM security.user_role ur
			JOIN security.role r
			  ON r.id = ur.role_id AND r.is_deleted = false
			JOIN security.role_permission rp
			  ON rp.role_id = ur.role_id AND rp.is_deleted = false
			JOIN security.permission p
			  ON p.id = rp.permission_id AND p.is_deleted = false
			WHERE ur.user_id = $1
			  AND ur.is_deleted = false
			  AND p.name = $2
		)
	`

// PermissionRepository implements the repositories.PermissionRepository interface
type PermissionRepository struct {
	logger *zap.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(logger *zap.Logger) repositories.PermissionRepository {
	return &PermissionRepository{logger: logger}
}

// UserHasPermission reports whether userID holds the named permission
func (r *PermissionRepository) UserHasPermission(ctx context.Context, q tenancy.Querier, userID uuid.UUID, name string) (bool, error) {
	var granted bool
	if err := q.QueryRowContext(ctx, userHasPermissionQuery, userID, name).Scan(&granted); err != nil {
		return false, wrapError("failed to check permission", err)
	}
	return granted, nil
}
