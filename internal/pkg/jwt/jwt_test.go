package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken("u1", true)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := parsed.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", claims["user_id"])
	assert.Equal(t, true, claims["is_admin"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestNewJWTService_BadDuration(t *testing.T) {
	_, err := NewJWTService("test-secret", "one hour")
	assert.Error(t, err)
}

func TestSSEToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)

	token, expiresIn, err := svc.GenerateSSEToken("u1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	userID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	access, _, err := svc.GenerateAccessToken("u1", false)
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken, "access tokens cannot open streams")

	other, err := NewJWTService("other-secret", "1h")
	require.NoError(t, err)
	_, err = other.ValidateSSEToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
