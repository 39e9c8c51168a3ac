package models

import (
	"time"

	"github.com/google/uuid"
)

// CodeSet is a tenant-defined list of codes (claim types, coverage classes, ...)
type CodeSet struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the CodeSet model
func (CodeSet) TableName() string {
	return "reference.code_set"
}

// NewCodeSet creates a new CodeSet instance
func NewCodeSet(code, name, description string) *CodeSet {
	return &CodeSet{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
