package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lilizblack/bookeareads-server/internal/domain"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-a-hash", "password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadOrGenerateKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()

	key1, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key1, 32)

	// Second load returns the same key.
	key2, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
}

func TestLoadOrGenerateKeyRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("short"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func newTokenService(t *testing.T, accessDuration time.Duration) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)

	svc, err := NewTokenService(key, accessDuration, 720*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTokenService(t, 15*time.Minute)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "usr-1"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "usr-1", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTokenService(t, -time.Minute)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "usr-1"

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenFromDifferentKeyRejected(t *testing.T) {
	svcA := newTokenService(t, 15*time.Minute)
	svcB := newTokenService(t, 15*time.Minute)

	user := &domain.User{Email: "reader@example.com"}
	user.ID = "usr-1"

	token, err := svcA.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svcB.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshTokenHashIsStable(t *testing.T) {
	svc := newTokenService(t, 15*time.Minute)

	token, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.Equal(t, HashRefreshToken(token), HashRefreshToken(token))
	assert.NotEqual(t, token, HashRefreshToken(token))
}
