package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier turns a bearer token into a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Principal, error)
}

// IssuerRouter dispatches a token to the verifier registered for its issuer.
// The unverified iss claim is only used to pick a verifier; the chosen
// verifier performs full validation including the issuer check.
type IssuerRouter struct {
	mu        sync.RWMutex
	verifiers map[string]TokenVerifier
	parser    *jwt.Parser
}

// NewIssuerRouter creates an empty router.
func NewIssuerRouter() *IssuerRouter {
	return &IssuerRouter{
		verifiers: make(map[string]TokenVerifier),
		parser:    jwt.NewParser(),
	}
}

// Register binds a verifier to an issuer, replacing any previous binding.
func (r *IssuerRouter) Register(issuer string, v TokenVerifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[issuer] = v
}

// Verify implements TokenVerifier.
func (r *IssuerRouter) Verify(ctx context.Context, token string) (Principal, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := r.parser.ParseUnverified(token, claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	r.mu.RLock()
	v, ok := r.verifiers[claims.Issuer]
	r.mu.RUnlock()
	if !ok {
		return Principal{}, fmt.Errorf("%w: unknown issuer %q", ErrInvalidToken, claims.Issuer)
	}

	return v.Verify(ctx, token)
}
