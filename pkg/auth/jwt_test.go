package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oculomed/glauco-api/internal/model"
)

func testService() JWTService {
	return NewJWTService(JWTConfig{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService()
	user := &model.User{Email: "patient@example.com"}
	user.ID = uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestRefreshTokenUsesDifferentSecret(t *testing.T) {
	svc := testService()
	user := &model.User{Email: "patient@example.com"}
	user.ID = uuid.New()

	refresh, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err, "refresh token must not validate as an access token")

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := testService()
	user := &model.User{Email: "patient@example.com"}
	user.ID = uuid.New()

	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)

	other := NewJWTService(JWTConfig{Secret: "other-secret", RefreshSecret: "other-refresh"})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
