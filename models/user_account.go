package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
)

// UserAccount represents a login identity inside one tenant.
// Accounts are soft-deleted via IsDeleted and never removed.
type UserAccount struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	TenantID     uuid.UUID     `json:"tenant_id" db:"tenant_id"`
	Username     string        `json:"username" db:"username"`
	Email        string        `json:"email" db:"email"`
	DisplayName  string        `json:"display_name" db:"display_name"`
	PasswordHash *string       `json:"-" db:"password_hash"` // nil for federated accounts
	IsActive     bool          `json:"is_active" db:"is_active"`
	AuthProvider auth.Provider `json:"auth_provider" db:"auth_provider"`
	IsDeleted    bool          `json:"-" db:"is_deleted"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the UserAccount model
func (UserAccount) TableName() string {
	return "security.user_account"
}

// NewLocalUserAccount creates an active LOCAL account. Email is normalized to
// lower case and doubles as the username.
func NewLocalUserAccount(email, displayName, passwordHash string) *UserAccount {
	email = NormalizeEmail(email)
	if displayName == "" {
		displayName = email
	}
	return &UserAccount{
		ID:           uuid.New(),
		Username:     email,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &passwordHash,
		IsActive:     true,
		AuthProvider: auth.ProviderLocal,
		CreatedAt:    time.Now().UTC(),
	}
}

// CanLoginLocally reports whether password login is allowed for the account.
func (u *UserAccount) CanLoginLocally() bool {
	return u.IsActive && !u.IsDeleted && u.AuthProvider == auth.ProviderLocal && u.PasswordHash != nil
}

// Principal builds the identity embedded in tokens issued for this account.
func (u *UserAccount) Principal() auth.Principal {
	return auth.Principal{
		UserID:      u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Provider:    u.AuthProvider,
	}
}

// NormalizeEmail trims and lower-cases an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
