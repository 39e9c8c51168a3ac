package postgres

import (
	"context"
	"database/sql"

	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
	"go.uber.org/zap"
)

// OutboxRepository implements the repositories.OutboxRepository interface
type OutboxRepository struct {
	logger *zap.Logger
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(logger *zap.Logger) repositories.OutboxRepository {
	return &OutboxRepository{logger: logger}
}

// Create inserts a new outbox event
func (r *OutboxRepository) Create(ctx context.Context, q tenancy.Querier, event *models.OutboxEvent) error {
	query := `
		INSERT INTO integration.outbox_event (
			id, tenant_id, aggregate_type, aggregate_id, event_type,
			payload, status, created_at
		) VALUES (
			$1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6, $7
		)
		RETURNING tenant_id
	`

	err := q.QueryRowContext(ctx, query,
		event.ID,
		event.AggregateType,
		event.AggregateID,
		event.EventType,
		[]byte(event.Payload),
		string(event.Status),
		event.CreatedAt,
	).Scan(&event.TenantID)
	if err != nil {
		return wrapError("failed to insert outbox event", err)
	}

	r.logger.Debug("outbox event inserted",
		zap.String("id", event.ID.String()),
		zap.String("event_type", event.EventType))
	return nil
}

// List retrieves outbox events with pagination
func (r *OutboxRepository) List(ctx context.Context, q tenancy.Querier, status models.OutboxStatus, limit, offset int) ([]*models.OutboxEvent, error) {
	query := `
		SELECT id, tenant_id, aggregate_type, aggregate_id, event_type,
		       payload, status, created_at, published_at
		FROM integration.outbox_event
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, wrapError("failed to list outbox events", err)
	}
	defer rows.Close()

	events := []*models.OutboxEvent{}
	for rows.Next() {
		event := &models.OutboxEvent{}
		var payload []byte
		var status string
		var publishedAt sql.NullTime
		if err := rows.Scan(
			&event.ID,
			&event.TenantID,
			&event.AggregateType,
			&event.AggregateID,
			&event.EventType,
			&payload,
			&status,
			&event.CreatedAt,
			&publishedAt,
		); err != nil {
			return nil, wrapError("failed to scan outbox event", err)
		}
		event.Payload = payload
		event.Status = models.OutboxStatus(status)
		if publishedAt.Valid {
			t := publishedAt.Time
			event.PublishedAt = &t
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("failed to iterate outbox events", err)
	}
	return events, nil
}
