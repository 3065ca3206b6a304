//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"clinic-booking/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	service := jwt.NewService("test-secret", time.Hour)

	t.Run("issued token validates", func(t *testing.T) {
		token, err := service.GenerateToken("clinic-frontdesk")
		require.NoError(t, err)

		claims, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "clinic-frontdesk", claims.ClientID)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := jwt.NewService("different-secret", time.Hour)
		token, err := other.GenerateToken("clinic-frontdesk")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := jwt.NewService("test-secret", -time.Minute)
		token, err := expired.GenerateToken("clinic-frontdesk")
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := service.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
