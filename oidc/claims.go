package oidc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/insurance-platform/internal/auth"
)

// DefaultTenantClaim is the B2C custom attribute carrying the tenant id.
const DefaultTenantClaim = "extension_TenantId"

var (
	// ErrMissingClaim is returned when a required claim is missing
	ErrMissingClaim = errors.New("missing required claim")

	// ErrInvalidClaimType is returned when a claim has an unexpected type
	ErrInvalidClaimType = errors.New("invalid claim type")
)

// ParsedClaims represents parsed and validated identity claims
type ParsedClaims struct {
	ObjectID  uuid.UUID
	Email     string
	Name      string
	TenantID  uuid.UUID // uuid.Nil when the tenant claim is absent
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal converts the claims into a federated principal.
func (c *ParsedClaims) Principal() auth.Principal {
	return auth.Principal{
		UserID:      c.ObjectID,
		TenantID:    c.TenantID,
		Email:       c.Email,
		DisplayName: c.Name,
		Provider:    auth.ProviderFederated,
	}
}

// ParseClaims extracts identity from a validated claim map. The user id is
// the directory object id (oid), falling back to sub.
func ParseClaims(claims jwt.MapClaims, tenantClaim string) (*ParsedClaims, error) {
	if tenantClaim == "" {
		tenantClaim = DefaultTenantClaim
	}

	subject, err := stringClaim(claims, "oid")
	if err != nil {
		return nil, err
	}
	if subject == "" {
		if subject, err = stringClaim(claims, "sub"); err != nil {
			return nil, err
		}
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: oid", ErrMissingClaim)
	}
	objectID, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("invalid oid UUID: %w", err)
	}

	parsed := &ParsedClaims{ObjectID: objectID}

	if parsed.Email, err = emailClaim(claims); err != nil {
		return nil, err
	}
	if parsed.Name, err = stringClaim(claims, "name"); err != nil {
		return nil, err
	}

	tenant, err := stringClaim(claims, tenantClaim)
	if err != nil {
		return nil, err
	}
	if tenant != "" {
		if parsed.TenantID, err = uuid.Parse(tenant); err != nil {
			return nil, fmt.Errorf("invalid %s UUID: %w", tenantClaim, err)
		}
	}

	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, fmt.Errorf("%w: iat", ErrInvalidClaimType)
	}
	if iat != nil {
		parsed.IssuedAt = iat.Time
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: exp", ErrInvalidClaimType)
	}
	if exp != nil {
		parsed.ExpiresAt = exp.Time
	}

	return parsed, nil
}

// emailClaim reads the first entry of the B2C "emails" array, falling back
// to the standard "email" claim.
func emailClaim(claims jwt.MapClaims) (string, error) {
	switch list := claims["emails"].(type) {
	case nil:
	case []string:
		if len(list) > 0 {
			return list[0], nil
		}
	case []interface{}:
		if len(list) > 0 {
			email, ok := list[0].(string)
			if !ok {
				return "", fmt.Errorf("%w: emails", ErrInvalidClaimType)
			}
			return email, nil
		}
	default:
		return "", fmt.Errorf("%w: emails", ErrInvalidClaimType)
	}
	return stringClaim(claims, "email")
}

func stringClaim(claims jwt.MapClaims, name string) (string, error) {
	raw, ok := claims[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidClaimType, name)
	}
	return s, nil
}
