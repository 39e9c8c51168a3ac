package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
	"github.com/upb/insurance-platform/internal/tenancy"
	"github.com/upb/insurance-platform/models"
	"github.com/upb/insurance-platform/repositories"
)

// change describes a mutation to be journaled next to the write itself
type change struct {
	Action     models.AuditAction
	EntityType string
	EntityID   uuid.UUID
	EventType  string
	Payload    interface{}
	RequestID  string
}

// journal writes the audit entry and outbox event for a change. Callers run
// it on the same transaction as the mutation so the three rows commit
// together.
type journal struct {
	audits repositories.AuditRepository
	outbox repositories.OutboxRepository
}

func (j journal) record(ctx context.Context, q tenancy.Querier, p auth.Principal, c change) error {
	entry, err := models.NewAuditLog(c.Action, c.EntityType, c.EntityID).
		WithUser(p.UserID).
		WithDetails(c.Payload)
	if err != nil {
		return fmt.Errorf("failed to build audit entry: %w", err)
	}
	entry.RequestID = c.RequestID

	if err := j.audits.Create(ctx, q, entry); err != nil {
		return err
	}

	event, err := models.NewOutboxEvent(c.EntityType, c.EntityID, c.EventType, c.Payload)
	if err != nil {
		return fmt.Errorf("failed to build outbox event: %w", err)
	}
	return j.outbox.Create(ctx, q, event)
}

// JournalService reads the tenant's audit trail and outbox
type JournalService struct {
	gateway *tenancy.Gateway
	audits  repositories.AuditRepository
	outbox  repositories.OutboxRepository
}

// NewJournalService creates a new JournalService instance
func NewJournalService(gateway *tenancy.Gateway, audits repositories.AuditRepository, outbox repositories.OutboxRepository) *JournalService {
	return &JournalService{gateway: gateway, audits: audits, outbox: outbox}
}

// ListAuditLogs returns the newest audit entries first
func (s *JournalService) ListAuditLogs(ctx context.Context, p auth.Principal, page Page) ([]*models.AuditLog, error) {
	logs, err := tenancy.RunResult(ctx, s.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]*models.AuditLog, error) {
		return s.audits.List(ctx, conn, page.Limit, page.Offset)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return logs, nil
}

// ListOutboxEvents returns outbox events, optionally filtered by status
func (s *JournalService) ListOutboxEvents(ctx context.Context, p auth.Principal, status models.OutboxStatus, page Page) ([]*models.OutboxEvent, error) {
	if status != "" && !status.Valid() {
		return nil, Wrap(ErrInvalidInput, nil).WithDetail("status", string(status))
	}

	events, err := tenancy.RunResult(ctx, s.gateway, p, func(ctx context.Context, conn *tenancy.BoundConn) ([]*models.OutboxEvent, error) {
		return s.outbox.List(ctx, conn, status, page.Limit, page.Offset)
	})
	if err != nil {
		return nil, FromStorageError(err)
	}
	return events, nil
}
