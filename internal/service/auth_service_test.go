package service_test

import (
	"context"
	"testing"
	"time"

	"planfit/workout-app/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newAuthService() (service.AuthService, *fakeUserRepo) {
	userRepo := newFakeUserRepo()
	return service.NewAuthService(userRepo, testJWTSecret, time.Hour), userRepo
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	user, err := authService.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	token, loggedIn, err := authService.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
	assert.Empty(t, loggedIn.PasswordHash)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	_, err := authService.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = authService.Register(ctx, "Impostor", "alice@example.com", "other-pass")
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	_, err := authService.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = authService.Login(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, service.ErrAuthenticationFailed)

	_, _, err = authService.Login(ctx, "nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestAuthService_TokenCarriesUserClaims(t *testing.T) {
	authService, _ := newAuthService()
	ctx := context.Background()

	user, err := authService.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	token, _, err := authService.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims["uid"])
	assert.Equal(t, false, claims["adm"])
}
