package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionUserRegistered AuditAction = "user_registered"
	AuditActionRoleCreated    AuditAction = "role_created"
	AuditActionCodeSetCreated AuditAction = "codeset_created"
	AuditActionLoginSucceeded AuditAction = "login_succeeded"
	AuditActionLoginFailed    AuditAction = "login_failed"
)

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	TenantID   uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	UserID     *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Action     AuditAction     `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"` // role, code_set, user_account
	EntityID   *uuid.UUID      `json:"entity_id,omitempty" db:"entity_id"`
	Details    json.RawMessage `json:"details" db:"details"` // JSONB for flexible metadata
	RequestID  string          `json:"request_id" db:"request_id"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit.audit_log"
}

// NewAuditLog creates a new AuditLog instance. A nil entityID leaves
// EntityID unset.
func NewAuditLog(action AuditAction, entityType string, entityID uuid.UUID) *AuditLog {
	log := &AuditLog{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		Details:    json.RawMessage(`{}`),
		CreatedAt:  time.Now().UTC(),
	}
	if entityID != uuid.Nil {
		log.EntityID = &entityID
	}
	return log
}

// WithUser sets the acting user, ignoring the nil UUID
func (a *AuditLog) WithUser(userID uuid.UUID) *AuditLog {
	if userID != uuid.Nil {
		a.UserID = &userID
	}
	return a
}

// WithDetails marshals v into Details
func (a *AuditLog) WithDetails(v any) (*AuditLog, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	a.Details = raw
	return a, nil
}
