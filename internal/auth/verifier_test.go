package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (Principal, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Principal), args.Error(1)
}

func TestIssuerRouter(t *testing.T) {
	ctx := context.Background()
	cfg := testTokenConfig()
	issuer, err := NewTokenIssuer(cfg, nil)
	require.NoError(t, err)

	p := testPrincipal()
	signed, err := issuer.Issue(p, 5)
	require.NoError(t, err)

	t.Run("dispatches on issuer claim", func(t *testing.T) {
		local := new(mockVerifier)
		federated := new(mockVerifier)
		local.On("Verify", ctx, signed.Token).Return(p, nil)

		router := NewIssuerRouter()
		router.Register(cfg.Issuer, local)
		router.Register("https://login.example.com/tfp/policy/v2.0/", federated)

		got, err := router.Verify(ctx, signed.Token)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		local.AssertExpectations(t)
		federated.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("unknown issuer is invalid", func(t *testing.T) {
		router := NewIssuerRouter()
		router.Register("other", new(mockVerifier))

		_, err := router.Verify(ctx, signed.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		router := NewIssuerRouter()

		_, err := router.Verify(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("routes to real local verifier", func(t *testing.T) {
		verifier, err := NewLocalTokenVerifier(cfg, nil)
		require.NoError(t, err)

		router := NewIssuerRouter()
		router.Register(verifier.Issuer(), verifier)

		got, err := router.Verify(ctx, signed.Token)
		require.NoError(t, err)
		assert.Equal(t, p.UserID, got.UserID)
		assert.Equal(t, p.TenantID, got.TenantID)
	})
}
