package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/domain"
	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

var testClient = ClientInfo{IPAddress: "127.0.0.1", UserAgent: "go-test"}

func TestAuthService_Setup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	required, err := env.auth.IsSetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)

	resp, err := env.auth.Setup(ctx, AccountRequest{
		Email:    "Admin@Example.com",
		Password: "correct-horse",
		Name:     "Ada",
	}, testClient)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAdmin, resp.User.Role)
	assert.Equal(t, "admin@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)

	_, err = env.auth.Setup(ctx, AccountRequest{
		Email:    "second@example.com",
		Password: "correct-horse",
		Name:     "Bob",
	}, testClient)
	assertDomainError(t, err, domainerrors.CodeAlreadyConfigured, "")
	assert.Equal(t, 409, domainerrors.CodeAlreadyConfigured.HTTPStatus())
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, AccountRequest{
		Email:    "sam@example.com",
		Password: "password123",
		Name:     "Sam",
	}, testClient)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, resp.User.Role)

	_, err = env.auth.Register(ctx, AccountRequest{
		Email:    "SAM@example.com",
		Password: "password123",
		Name:     "Sam Again",
	}, testClient)
	assertDomainError(t, err, domainerrors.CodeDuplicate, "An account with this email already exists")

	_, err = env.auth.Register(ctx, AccountRequest{Email: "x@example.com", Password: "short", Name: "X"}, testClient)
	assertDomainError(t, err, domainerrors.CodeValidation, "")

	_, err = env.auth.Register(ctx, AccountRequest{Email: "not-an-email", Password: "password123", Name: "X"}, testClient)
	assertDomainError(t, err, domainerrors.CodeValidation, "")

	// A student account does not complete setup.
	required, err := env.auth.IsSetupRequired(ctx)
	require.NoError(t, err)
	assert.True(t, required)
}

func TestAuthService_LoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, AccountRequest{Email: "sam@example.com", Password: "password123", Name: "Sam"}, testClient)
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "wrong-password"}, testClient)
	assertDomainError(t, err, domainerrors.CodeInvalidCredentials, "Invalid email or password")

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"}, testClient)
	assertDomainError(t, err, domainerrors.CodeInvalidCredentials, "Invalid email or password")

	login, err := env.auth.Login(ctx, LoginRequest{Email: " Sam@Example.com ", Password: "password123"}, testClient)
	require.NoError(t, err)
	assert.False(t, login.User.LastLoginAt.IsZero())

	user, err := env.auth.VerifyAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, user.ID)

	refreshed, err := env.auth.Refresh(ctx, login.RefreshToken, ClientInfo{UserAgent: "renewed"})
	require.NoError(t, err)
	assert.Equal(t, login.SessionID, refreshed.SessionID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Rotation invalidates the previous refresh token.
	_, err = env.auth.Refresh(ctx, login.RefreshToken, testClient)
	assertDomainError(t, err, domainerrors.CodeTokenExpired, "Invalid or expired refresh token")

	require.NoError(t, env.auth.Logout(ctx, refreshed.RefreshToken))
	require.NoError(t, env.auth.Logout(ctx, refreshed.RefreshToken))

	_, err = env.auth.Refresh(ctx, refreshed.RefreshToken, testClient)
	assertDomainError(t, err, domainerrors.CodeTokenExpired, "")

	err = env.auth.Logout(ctx, "")
	assertDomainError(t, err, domainerrors.CodeValidation, "")
}

func TestAuthService_VerifyAccessToken_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.VerifyAccessToken(ctx, "v4.local.garbage")
	assertDomainError(t, err, domainerrors.CodeUnauthorized, "Invalid access token")

	// A valid token for a user that no longer exists is rejected.
	ghost := domain.NewUser("user-ghost", "ghost@example.com", "Ghost", domain.RoleAdmin)
	token, _, err := env.tokens.GenerateAccessToken(ghost)
	require.NoError(t, err)

	_, err = env.auth.VerifyAccessToken(ctx, token)
	assertDomainError(t, err, domainerrors.CodeUnauthorized, "Invalid access token")
}
