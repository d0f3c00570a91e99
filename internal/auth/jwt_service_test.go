package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "socioai", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "a@example.com", "user")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.InDelta(t, time.Minute.Seconds(), RemainingTTL(claims).Seconds(), 5)
}

func TestJWTService_RefreshTokenID(t *testing.T) {
	svc := NewJWTService("secret", "socioai", 0, 0)
	assert.Equal(t, DefaultAccessTokenExpiry, svc.AccessTTL())

	tokenID, token, err := svc.GenerateRefreshToken(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)

	extracted, err := svc.ExtractTokenID(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, extracted)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("secret", "socioai", time.Minute, time.Hour)

	other, err := NewJWTService("other-secret", "socioai", time.Minute, time.Hour).
		GenerateAccessToken(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.Error(t, err)

	foreign, err := NewJWTService("secret", "someone-else", time.Minute, time.Hour).
		GenerateAccessToken(uuid.New(), "a@example.com", "user")
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "socioai",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)
}
