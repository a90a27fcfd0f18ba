package authenticating

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/inventory-analytics-api/internal/config"
	"github.com/vfg2006/inventory-analytics-api/internal/domain"
	"github.com/vfg2006/inventory-analytics-api/pkg/apiErrors"
)

func newTestService() *Service {
	return NewService(config.Auth{Secret: "segredo-de-teste", AdminRoleID: 1}).(*Service)
}

func TestService_ValidateToken(t *testing.T) {
	service := newTestService()

	t.Run("Token válido devolve as claims", func(t *testing.T) {
		token, err := service.GenerateToken(domain.Claims{
			UserID:    "u1",
			RoleID:    2,
			TenantID:  "t1",
			BranchIDs: []string{"b1"},
		}, time.Hour)
		require.NoError(t, err)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "t1", claims.TenantID)
		assert.Equal(t, []string{"b1"}, claims.BranchIDs)
	})

	t.Run("Token expirado", func(t *testing.T) {
		token, err := service.GenerateToken(domain.Claims{TenantID: "t1"}, -time.Minute)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
		assert.Equal(t, apiErrors.ErrExpiredToken, ErrorCode(err))
	})

	t.Run("Assinatura de outro segredo", func(t *testing.T) {
		other := NewService(config.Auth{Secret: "outro"})
		token, err := other.GenerateToken(domain.Claims{TenantID: "t1"}, time.Hour)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Token sem tenant", func(t *testing.T) {
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, domain.Claims{UserID: "u1"})
		token, err := raw.SignedString([]byte("segredo-de-teste"))
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingTenant)
	})

	t.Run("Texto qualquer", func(t *testing.T) {
		_, err := service.ValidateToken("abc.def")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Equal(t, apiErrors.ErrInvalidToken, ErrorCode(err))
	})
}
