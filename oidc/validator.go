// Package oidc validates bearer tokens issued by an external OpenID Connect
// provider (Azure AD B2C user flows) against the provider's JWKS.
package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/insurance-platform/internal/auth"
)

var (
	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrKeyNotFound is returned when no JWK matches the token's kid
	ErrKeyNotFound = errors.New("signing key not found in JWKS")
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Config holds configuration for Validator
type Config struct {
	// Issuer is the exact iss value of the user flow,
	// e.g. https://contoso.b2clogin.com/<tenant-guid>/v2.0/
	Issuer string
	// ClientID is the expected audience
	ClientID string
	// JWKSURL defaults to the issuer's discovery keys endpoint when empty
	JWKSURL     string
	TenantClaim string
	ClockSkew   time.Duration
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
}

// Validator validates RS256 tokens from the configured issuer
type Validator struct {
	issuer      string
	clientID    string
	jwksURL     string
	tenantClaim string
	httpClient  *http.Client
	parser      *jwt.Parser

	// Cache for JWKS
	jwksCache    *JWKS
	jwksCacheExp time.Time
	jwksCacheTTL time.Duration
	cacheMu      sync.RWMutex

	// Cache for parsed public keys
	keyCache   map[string]*rsa.PublicKey
	keyCacheMu sync.RWMutex
}

// NewValidator creates a new OIDC token validator
func NewValidator(cfg Config) *Validator {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 1 * time.Hour
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = strings.TrimSuffix(cfg.Issuer, "/") + "/discovery/v2.0/keys"
	}
	if cfg.TenantClaim == "" {
		cfg.TenantClaim = DefaultTenantClaim
	}

	return &Validator{
		issuer:       cfg.Issuer,
		clientID:     cfg.ClientID,
		jwksURL:      cfg.JWKSURL,
		tenantClaim:  cfg.TenantClaim,
		jwksCacheTTL: cfg.CacheTTL,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.ClientID),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.ClockSkew),
		),
		keyCache: make(map[string]*rsa.PublicKey),
	}
}

// Issuer returns the issuer this validator accepts.
func (v *Validator) Issuer() string {
	return v.issuer
}

// ValidateToken validates a JWT and returns parsed claims
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*ParsedClaims, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, errors.New("kid header not found")
		}

		publicKey, err := v.getPublicKey(ctx, kid)
		if err != nil {
			return nil, fmt.Errorf("failed to get public key: %w", err)
		}

		return publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", auth.ErrInvalidToken, auth.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, auth.ErrInvalidToken
	}

	parsed, err := ParseClaims(claims, v.tenantClaim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	return parsed, nil
}

// Verify implements auth.TokenVerifier
func (v *Validator) Verify(ctx context.Context, tokenString string) (auth.Principal, error) {
	parsed, err := v.ValidateToken(ctx, tokenString)
	if err != nil {
		return auth.Principal{}, err
	}
	return parsed.Principal(), nil
}

// FetchJWKS fetches the JWKS from the provider
func (v *Validator) FetchJWKS(ctx context.Context) (*JWKS, error) {
	// Check cache first
	v.cacheMu.RLock()
	if v.jwksCache != nil && time.Now().Before(v.jwksCacheExp) {
		defer v.cacheMu.RUnlock()
		return v.jwksCache, nil
	}
	v.cacheMu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	v.cacheMu.Lock()
	v.jwksCache = &jwks
	v.jwksCacheExp = time.Now().Add(v.jwksCacheTTL)
	v.cacheMu.Unlock()

	return &jwks, nil
}

// getPublicKey retrieves the public key for a given kid. An unknown kid
// forces one JWKS refresh to pick up rotated keys.
func (v *Validator) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.keyCacheMu.RLock()
	if key, exists := v.keyCache[kid]; exists {
		v.keyCacheMu.RUnlock()
		return key, nil
	}
	v.keyCacheMu.RUnlock()

	jwks, err := v.FetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	jwk := findKey(jwks, kid)
	if jwk == nil {
		// A new kid means the key set rotated; keys no longer published stop verifying.
		v.invalidateCache()
		if jwks, err = v.FetchJWKS(ctx); err != nil {
			return nil, err
		}
		if jwk = findKey(jwks, kid); jwk == nil {
			return nil, fmt.Errorf("%w: kid %s", ErrKeyNotFound, kid)
		}
	}

	publicKey, err := jwkToRSAPublicKey(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to convert JWK to RSA public key: %w", err)
	}

	v.keyCacheMu.Lock()
	v.keyCache[kid] = publicKey
	v.keyCacheMu.Unlock()

	return publicKey, nil
}

func findKey(jwks *JWKS, kid string) *JWK {
	for i := range jwks.Keys {
		if jwks.Keys[i].Kid == kid {
			return &jwks.Keys[i]
		}
	}
	return nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	if jwk.Kty != "" && jwk.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", jwk.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// invalidateCache drops both the JWKS and the parsed key cache
func (v *Validator) invalidateCache() {
	v.cacheMu.Lock()
	v.jwksCache = nil
	v.jwksCacheExp = time.Time{}
	v.cacheMu.Unlock()

	v.keyCacheMu.Lock()
	defer v.keyCacheMu.Unlock()
	v.keyCache = make(map[string]*rsa.PublicKey)
}
