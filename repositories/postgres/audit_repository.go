package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{logger: logger}
}

// Create inserts a new audit log entry
func (r *AuditRepository) Create(ctx context.Context, q tenancy.Querier, log *models.AuditLog) error {
	query := `
		INSERT INTO audit.audit_log (
			id, tenant_id, user_id, action, entity_type, entity_id,
			details, request_id, created_at
		) VALUES (
			$1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING tenant_id
	`

	details := []byte(log.Details)
	if len(details) == 0 {
		details = []byte(`{}`)
	}

	err := q.QueryRowContext(ctx, query,
		log.ID,
		nullUUID(log.UserID),
		string(log.Action),
		log.EntityType,
		nullUUID(log.EntityID),
		details,
		log.RequestID,
		log.CreatedAt,
	).Scan(&log.TenantID)
	if err != nil {
		return wrapError("failed to insert audit log", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.Action)))
	return nil
}

// List retrieves audit logs with pagination
func (r *AuditRepository) List(ctx context.Context, q tenancy.Querier, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, tenant_id, user_id, action, entity_type, entity_id,
		       details, request_id, created_at
		FROM audit.audit_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, wrapError("failed to list audit logs", err)
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		log := &models.AuditLog{}
		var userID, entityID uuid.NullUUID
		var action string
		var details []byte
		if err := rows.Scan(
			&log.ID,
			&log.TenantID,
			&userID,
			&action,
			&log.EntityType,
			&entityID,
			&details,
			&log.RequestID,
			&log.CreatedAt,
		); err != nil {
			return nil, wrapError("failed to scan audit log", err)
		}
		log.Action = models.AuditAction(action)
		log.UserID = uuidPtr(userID)
		log.EntityID = uuidPtr(entityID)
		log.Details = details
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate audit logs", err)
	}
	return logs, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
