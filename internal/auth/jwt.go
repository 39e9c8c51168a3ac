package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token fails any validation step
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned alongside ErrInvalidToken when exp has passed
	ErrTokenExpired = errors.New("token expired")

	// ErrSigningKeyMissing is returned when the issuer has no key configured
	ErrSigningKeyMissing = errors.New("token signing key is not configured")
)

// TokenConfig holds the process-wide settings shared by the local token
// issuer and verifier. It is built once from configuration at startup.
type TokenConfig struct {
	SigningKey    []byte
	Issuer        string
	Audience      string
	DefaultExpiry time.Duration

	// ClockSkew is the leeway applied to exp and nbf. Zero means a token is
	// rejected as soon as its expiry instant is reached.
	ClockSkew time.Duration
}

// Claims is the claim set embedded in locally issued tokens.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
}

// SignedToken is a compact JWT and its absolute expiry.
type SignedToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer mints HS256 tokens for local accounts.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. now may be nil.
func NewTokenIssuer(cfg TokenConfig, now func() time.Time) (*TokenIssuer, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrSigningKeyMissing
	}
	if cfg.DefaultExpiry <= 0 {
		cfg.DefaultExpiry = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{cfg: cfg, now: now}, nil
}

// Issue signs a token for p that expires expiryMinutes after issuance.
// A non-positive expiryMinutes falls back to the configured default.
func (i *TokenIssuer) Issue(p Principal, expiryMinutes int) (SignedToken, error) {
	if p.UserID == uuid.Nil || !p.HasTenant() {
		return SignedToken{}, fmt.Errorf("cannot issue token for principal without user and tenant")
	}

	ttl := i.cfg.DefaultExpiry
	if expiryMinutes > 0 {
		ttl = time.Duration(expiryMinutes) * time.Minute
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID.String(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TenantID: p.TenantID.String(),
		Email:    p.Email,
		Name:     p.DisplayName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return SignedToken{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return SignedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// LocalTokenVerifier validates tokens minted by TokenIssuer.
type LocalTokenVerifier struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewLocalTokenVerifier creates a verifier sharing cfg with the issuer. now may be nil.
func NewLocalTokenVerifier(cfg TokenConfig, now func() time.Time) (*LocalTokenVerifier, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrSigningKeyMissing
	}
	if now == nil {
		now = time.Now
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithTimeFunc(now),
	)
	return &LocalTokenVerifier{cfg: cfg, parser: parser}, nil
}

// Issuer returns the issuer this verifier accepts.
func (v *LocalTokenVerifier) Issuer() string {
	return v.cfg.Issuer
}

// Verify checks signature, issuer, audience and expiry, then builds the
// principal from the embedded claims.
func (v *LocalTokenVerifier) Verify(_ context.Context, tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.cfg.SigningKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: malformed sub claim", ErrInvalidToken)
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: malformed tid claim", ErrInvalidToken)
	}

	return Principal{
		UserID:      userID,
		TenantID:    tenantID,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Provider:    ProviderLocal,
	}, nil
}
