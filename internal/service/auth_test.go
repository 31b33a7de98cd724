package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minitwit/internal/config"
	"minitwit/internal/model"
	"minitwit/internal/repository/memstore"
)

const testSecret = "test-secret"

func newTestAuthService(t *testing.T) (*AuthService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	cfg := &config.Config{
		JWTSecret:         testSecret,
		AccessTokenMaxAge: 900,
		SessionMaxAge:     36000,
	}
	return NewAuthService(store.RefreshTokens(), cfg), store
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 900, pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	parsed, err := jwt.Parse(pair.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["user_id"])

	stored, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(pair.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, int64(42), stored.UserID)
	assert.NotEqual(t, pair.RefreshToken, stored.TokenHash, "only the hash is persisted")
}

func TestAuthService_RefreshTokens_Rotates(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.GenerateTokenPair(ctx, 7)
	require.NoError(t, err)

	second, userID, err := svc.RefreshTokens(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	old, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(first.RefreshToken))
	require.NoError(t, err)
	assert.True(t, old.IsRevoked())
	require.NotNil(t, old.ReplacedBy)

	replacement, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(second.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, replacement.ID, *old.ReplacedBy)
}

func TestAuthService_RefreshTokens_ReuseRevokesFamily(t *testing.T) {
	svc, store := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.GenerateTokenPair(ctx, 7)
	require.NoError(t, err)
	second, _, err := svc.RefreshTokens(ctx, first.RefreshToken)
	require.NoError(t, err)

	_, _, err = svc.RefreshTokens(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)

	current, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(second.RefreshToken))
	require.NoError(t, err)
	assert.True(t, current.IsRevoked(), "reuse must end every session of the user")
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 7)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	_, _, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, model.ErrRefreshTokenExpired)
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.RefreshTokens(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, model.ErrRefreshTokenNotFound)
}

func TestAuthService_RevokeRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, pair.RefreshToken))

	_, _, err = svc.RefreshTokens(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)
}
