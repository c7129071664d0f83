package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/config"
	"pos-backend/internal/models"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "pos-backend"
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("secret"))
	user := &models.User{ID: uuid.New(), Email: "a@shop.test", Role: models.RoleAdmin}

	token, err := m.GenerateToken(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "a@shop.test", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@shop.test", Role: models.RoleCashier}
	token, err := NewJWTManager(testConfig("secret")).GenerateToken(user)
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("other")).ValidateToken(token)
	assert.Error(t, err, "wrong secret")

	otherIssuer := testConfig("secret")
	otherIssuer.JWT.Issuer = "someone-else"
	_, err = NewJWTManager(otherIssuer).ValidateToken(token)
	assert.Error(t, err, "wrong issuer")

	_, err = NewJWTManager(testConfig("secret")).ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong"))
}
