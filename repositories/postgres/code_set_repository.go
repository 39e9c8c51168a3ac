package postgres

import (
	"context"

	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// CodeSetRepository implements the repositories.CodeSetRepository interface
type CodeSetRepository struct {
	logger *zap.Logger
}

// NewCodeSetRepository creates a new code set repository
func NewCodeSetRepository(logger *zap.Logger) repositories.CodeSetRepository {
	return &CodeSetRepository{logger: logger}
}

// List retrieves the tenant's code sets
func (r *CodeSetRepository) List(ctx context.Context, q tenancy.Querier) ([]*models.CodeSet, error) {
	query := `
		SELECT id, tenant_id, code, name, description, is_deleted, created_at
		FROM reference.code_set
		WHERE is_deleted = false
		ORDER BY code
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError("failed to list code sets", err)
	}
	defer rows.Close()

	sets := []*models.CodeSet{}
	for rows.Next() {
		cs := &models.CodeSet{}
		if err := rows.Scan(
			&cs.ID,
			&cs.TenantID,
			&cs.Code,
			&cs.Name,
			&cs.Description,
			&cs.IsDeleted,
			&cs.CreatedAt,
		); err != nil {
			return nil, wrapError("failed to scan code set", err)
		}
		sets = append(sets, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate code sets", err)
	}
	return sets, nil
}

// Create creates a new code set
func (r *CodeSetRepository) Create(ctx context.Context, q tenancy.Querier, cs *models.CodeSet) error {
	query := `
		INSERT INTO reference.code_set (id, tenant_id, code, name, description, is_deleted, created_at)
		VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4, false, $5)
		RETURNING tenant_id
	`

	err := q.QueryRowContext(ctx, query,
		cs.ID,
		cs.Code,
		cs.Name,
		cs.Description,
		cs.CreatedAt,
	).Scan(&cs.TenantID)
	if err != nil {
		return wrapError("failed to create code set", err)
	}

	r.logger.Debug("code set created", zap.String("id", cs.ID.String()), zap.String("code", cs.Code))
	return nil
}
