package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus tracks delivery of an outbox event
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusPublished OutboxStatus = "PUBLISHED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Valid reports whether s is a known status
func (s OutboxStatus) Valid() bool {
	switch s {
	case OutboxStatusPending, OutboxStatusPublished, OutboxStatusFailed:
		return true
	}
	return false
}

// OutboxEvent is an integration event written in the same transaction as the
// change it describes.
type OutboxEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	AggregateType string          `json:"aggregate_type" db:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id" db:"aggregate_id"`
	EventType     string          `json:"event_type" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	Status        OutboxStatus    `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty" db:"published_at"`
}

// TableName returns the table name for the OutboxEvent model
func (OutboxEvent) TableName() string {
	return "integration.outbox_event"
}

// NewOutboxEvent creates a pending event with payload marshalled from v
func NewOutboxEvent(aggregateType string, aggregateID uuid.UUID, eventType string, v any) (*OutboxEvent, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		Status:        OutboxStatusPending,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
