package service_test

// End-to-end session flows: the real token codec against the in-memory
// credential store, no mocks.

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisx-boilerplate/aegisx-auth/config"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/dto"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/repository/memory"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/service"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

func newFlowService(t *testing.T) (*service.SessionService, *memory.MemoryRepository) {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			Secret:            strings.Repeat("s", 32),
			Algorithm:         "HS256",
			Issuer:            "aegisx-auth",
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   7 * 24 * time.Hour,
			MaxLoginAttempts:  5,
			LockoutDuration:   30 * time.Minute,
			MinPasswordLength: 6,
		},
	}

	tokens, err := service.NewTokenService(cfg.Auth)
	require.NoError(t, err)

	repo := memory.NewMemoryRepository()
	return service.NewSessionService(repo, tokens, cfg), repo
}

func registerAlice(t *testing.T, s *service.SessionService) *dto.AuthResult {
	t.Helper()
	result, err := s.Register(context.Background(), dto.RegisterInput{
		Email:     "alice@x.com",
		Password:  "secret1",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	return result
}

func TestFlow_RegisterThenLogin(t *testing.T) {
	s, _ := newFlowService(t)
	ctx := context.Background()

	registered := registerAlice(t, s)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)

	result, err := s.Login(ctx, dto.LoginInput{Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.NotEqual(t, registered.RefreshToken, result.RefreshToken)

	// The access token resolves back to the stored user.
	view, err := s.CurrentUser(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", view.Email)

	// Registering the same email again, any casing, conflicts.
	_, err = s.Register(ctx, dto.RegisterInput{
		Email:     "ALICE@X.COM",
		Password:  "another1",
		FirstName: "Other",
		LastName:  "Person",
	})
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestFlow_LockoutAndRecovery(t *testing.T) {
	s, repo := newFlowService(t)
	ctx := context.Background()

	userID := registerAlice(t, s).User.ID

	for i := 0; i < 5; i++ {
		_, err := s.Login(ctx, dto.LoginInput{Email: "alice@x.com", Password: "wrong"})
		assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
	}

	// Sixth attempt with the correct password is still rejected.
	_, err := s.Login(ctx, dto.LoginInput{Email: "alice@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, autherror.ErrAccountLocked)

	// Simulate the lockout window elapsing.
	require.NoError(t, repo.LockAccount(ctx, userID, time.Now().Add(-time.Second)))

	result, err := s.Login(ctx, dto.LoginInput{Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	user, err := repo.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockedUntil)
	assert.NotNil(t, user.LastLoginAt)
}

func TestFlow_RefreshRotation(t *testing.T) {
	s, _ := newFlowService(t)
	ctx := context.Background()

	original := registerAlice(t, s).RefreshToken

	pair, err := s.Refresh(ctx, original)
	require.NoError(t, err)
	assert.NotEqual(t, original, pair.RefreshToken)

	// The spent token cannot be used a second time.
	_, err = s.Refresh(ctx, original)
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)

	// The rotated token works.
	_, err = s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestFlow_LogoutBlocksRefresh(t *testing.T) {
	s, _ := newFlowService(t)
	ctx := context.Background()

	refresh := registerAlice(t, s).RefreshToken

	require.NoError(t, s.Logout(ctx, refresh))
	// Logging out twice is fine.
	require.NoError(t, s.Logout(ctx, refresh))

	_, err := s.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
}

func TestFlow_LogoutAllRevokesEverySession(t *testing.T) {
	s, _ := newFlowService(t)
	ctx := context.Background()

	result := registerAlice(t, s)
	second, err := s.Login(ctx, dto.LoginInput{Email: "alice@x.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, s.LogoutAll(ctx, result.User.ID))

	_, err = s.Refresh(ctx, result.RefreshToken)
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
	_, err = s.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, autherror.ErrInvalidRefreshToken)
}

func TestFlow_CleanupRemovesOnlyExpiredRows(t *testing.T) {
	s, repo := newFlowService(t)
	ctx := context.Background()

	live := registerAlice(t, s).RefreshToken

	// Seed one already-expired row alongside the live one.
	now := time.Now()
	require.NoError(t, repo.StoreRefreshToken(ctx, &domain.RefreshTokenRecord{
		ID:        "expired-rec",
		UserID:    "someone",
		TokenHash: service.HashToken("stale-token"),
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}))

	n, err := s.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// The live session is untouched.
	_, err = s.Refresh(ctx, live)
	require.NoError(t, err)
}
