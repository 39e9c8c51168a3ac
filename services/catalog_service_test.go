package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/insurance-platform/internal/tenancy/tenancytest"
	"github.com/upb/insurance-platform/models"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("countries", func(t *testing.T) {
		gw, sqlMock := tenancytest.NewGateway(t)
		ref := new(MockReferenceRepository)
		p := testUser()
		tenancytest.ExpectBind(sqlMock, p)
		ref.On("ListCountries", mock.Anything, mock.Anything).
			Return([]*models.Country{{Code: "CO", Name: "Colombia", NumericCode: "170"}}, nil)

		got, err := NewCatalogService(gw, ref).ListCountries(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "CO", got[0].Code)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("currencies", func(t *testing.T) {
		gw, sqlMock := tenancytest.NewGateway(t)
		ref := new(MockReferenceRepository)
		p := testUser()
		tenancytest.ExpectBind(sqlMock, p)
		ref.On("ListCurrencies", mock.Anything, mock.Anything).
			Return([]*models.Currency{{Code: "COP", Name: "Colombian peso", MinorUnit: 2}}, nil)

		got, err := NewCatalogService(gw, ref).ListCurrencies(ctx, p)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("languages bind failure", func(t *testing.T) {
		gw, sqlMock := tenancytest.NewGateway(t)
		ref := new(MockReferenceRepository)
		p := testUser()
		tenancytest.ExpectBindError(sqlMock, p, errors.New("server closed the connection"))
		sqlMock.ExpectClose()

		_, err := NewCatalogService(gw, ref).ListLanguages(ctx, p)
		assert.True(t, IsBindError(err))
		ref.AssertNotCalled(t, "ListLanguages", mock.Anything, mock.Anything)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}
