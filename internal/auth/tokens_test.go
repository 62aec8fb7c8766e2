package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck/coursedeck-server/internal/domain"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := LoadOrGenerateKey(filepath.Join(t.TempDir(), "auth.key"))
	require.NoError(t, err)
	return key
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testKey(t), 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestLoadOrGenerateKey_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.key")

	first, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Len(t, first, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.key")

	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	_, err := LoadOrGenerateKey(path)
	assert.ErrorContains(t, err, "invalid auth key length")

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("zz", KeySize)), 0o600))
	_, err = LoadOrGenerateKey(path)
	assert.ErrorContains(t, err, "not valid hex")
}

func TestNewTokenService_KeySize(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	user := domain.NewUser("user-1", "Ada@Example.com", "Ada", domain.RoleAdmin)

	token, expires, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expires, 5*time.Second)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
}

func TestAccessToken_Expired(t *testing.T) {
	svc := newTestTokenService(t)
	user := domain.NewUser("user-1", "ada@example.com", "Ada", domain.RoleStudent)

	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessToken_WrongKey(t *testing.T) {
	issuer := newTestTokenService(t)
	verifier := newTestTokenService(t)
	user := domain.NewUser("user-1", "ada@example.com", "Ada", domain.RoleStudent)

	token, _, err := issuer.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = verifier.VerifyAccessToken("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	svc := newTestTokenService(t)

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
	assert.Equal(t, 720*time.Hour, svc.RefreshTokenDuration())
}
