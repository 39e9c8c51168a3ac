package models

import (
	"time"

	"github.com/google/uuid"
)

// Role groups permissions granted to users of one tenant
type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsDeleted   bool      `json:"-" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Role model
func (Role) TableName() string {
	return "security.role"
}

// NewRole creates a new Role instance. TenantID is assigned by the database
// from the bound session.
func NewRole(name, description string) *Role {
	return &Role{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
