package postgres

import (
	"context"

	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// RoleRepository implements the repositories.RoleRepository interface
type RoleRepository struct {
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(logger *zap.Logger) repositories.RoleRepository {
	return &RoleRepository{logger: logger}
}

// List retrieves the tenant's roles
func (r *RoleRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.Role, error) {
	query := `
		SELECT id, tenant_id, name, description, is_deleted, created_at
		FROM security.role
		WHERE is_deleted = false
		ORDER BY name
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError("failed to list roles", err)
	}
	defer rows.Close()

	roles := []*models.Role{}
	for rows.Next() {
		role := &models.Role{}
		if err := rows.Scan(
			&role.ID,
			&role.TenantID,
			&role.Name,
			&role.Description,
			&role.IsDeleted,
			&role.CreatedAt,
		); err != nil {
			return nil, wrapError("failed to scan role", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate roles", err)
	}
	return roles, nil
}

// Create creates a new role
func (r *RoleRepository) Create(ctx context.Context, q tenancy.Querier, role *models.Role) error {
	query := `
		INSERT INTO security.role (id, tenant_id, name, description, is_deleted, created_at)
		VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, false, $4)
		RETURNING tenant_id
	`

	err := q.QueryRowContext(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.CreatedAt,
	).Scan(&role.TenantID)
	if err != nil {
		return wrapError("failed to create role", err)
	}

	r.logger.Debug("role created", zap.String("id", role.ID.String()), zap.String("name", role.Name))
	return nil
}
