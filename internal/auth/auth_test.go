package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sari-backend/internal/config"
	"sari-backend/internal/models"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = "sari-backend"
	cfg.JWT.ExpirationHours = 1
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("s3cret"))
	user := &models.User{ID: "u-1", Name: "Aling Nena", Email: "nena@example.com", Role: models.RoleAdmin}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "nena@example.com", claims.Email)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("one")).GenerateToken(&models.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("two")).ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	cfg := testConfig("s3cret")
	cfg.JWT.ExpirationHours = -1
	m := NewJWTManager(cfg)

	token, err := m.GenerateToken(&models.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("tindahan123")
	require.NoError(t, err)
	assert.NotEqual(t, "tindahan123", hash)
	assert.True(t, VerifyPassword(hash, "tindahan123"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
