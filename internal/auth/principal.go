package auth

import (
	"github.com/google/uuid"
)

// Provider identifies where an account's credentials are managed.
type Provider string

const (
	ProviderLocal     Provider = "LOCAL"
	ProviderFederated Provider = "FEDERATED"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderLocal || p == ProviderFederated
}

// Principal is the authenticated identity resolved for one request.
// It is built once by a verifier and passed by value; nothing mutates it.
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Email       string
	DisplayName string
	Provider    Provider
}

// Anonymous returns a principal carrying only a tenant. It is used for
// pre-authentication work (registration, credential lookup) that must still
// run under a bound tenant.
func Anonymous(tenantID uuid.UUID) Principal {
	return Principal{TenantID: tenantID}
}

// HasTenant reports whether the principal is scoped to a tenant.
func (p Principal) HasTenant() bool {
	return p.TenantID != uuid.Nil
}

// IsAnonymous reports whether the principal has no user identity.
func (p Principal) IsAnonymous() bool {
	return p.UserID == uuid.Nil
}
