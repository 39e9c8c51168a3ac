package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once per hasher so that lookups for unknown
// accounts spend the same bcrypt work as real comparisons.
const dummyPassword = "insurance-platform-timing-equalizer"

// PasswordHasher hashes and verifies passwords with bcrypt. The produced
// hash embeds algorithm version, cost and salt.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordHasher creates a hasher. Costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the bcrypt cost used for new hashes.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plain.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plain matches hash.
func (h *PasswordHasher) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CompareDummy burns one comparison against a throwaway hash.
func (h *PasswordHasher) CompareDummy(plain string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plain))
}
