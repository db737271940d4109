package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/repository/memory"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

func seedUser(t *testing.T, r *memory.MemoryRepository) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:     "user-123",
		Email:  "test@example.com",
		Active: true,
	}
	require.NoError(t, r.Create(context.Background(), user))
	return user
}

func TestMemoryRepository_Users(t *testing.T) {
	r := memory.NewMemoryRepository()
	ctx := context.Background()
	seedUser(t, r)

	t.Run("lookup by email and id", func(t *testing.T) {
		byEmail, err := r.GetByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)

		byID, err := r.GetByID(ctx, "user-123")
		require.NoError(t, err)
		require.NotNil(t, byID)
	})

	t.Run("missing rows are nil, not errors", func(t *testing.T) {
		u, err := r.GetByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := r.Create(ctx, &domain.User{ID: "other", Email: "test@example.com"})
		assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		u, err := r.GetByID(ctx, "user-123")
		require.NoError(t, err)
		u.Email = "mutated@example.com"

		again, err := r.GetByID(ctx, "user-123")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", again.Email)
	})

	t.Run("deactivate clears the active flag", func(t *testing.T) {
		require.NoError(t, r.Deactivate(ctx, "user-123"))
		u, err := r.GetByID(ctx, "user-123")
		require.NoError(t, err)
		assert.False(t, u.Active)
	})
}

func TestMemoryRepository_LockoutCounters(t *testing.T) {
	r := memory.NewMemoryRepository()
	ctx := context.Background()
	seedUser(t, r)

	n, err := r.IncrementLoginAttempts(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = r.IncrementLoginAttempts(ctx, "user-123")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	until := time.Now().Add(30 * time.Minute)
	require.NoError(t, r.LockAccount(ctx, "user-123", until))
	u, err := r.GetByID(ctx, "user-123")
	require.NoError(t, err)
	assert.Zero(t, u.LoginAttempts)
	require.NotNil(t, u.LockedUntil)
	assert.WithinDuration(t, until, *u.LockedUntil, time.Second)

	require.NoError(t, r.UpdateLastLogin(ctx, "user-123"))
	u, err = r.GetByID(ctx, "user-123")
	require.NoError(t, err)
	assert.Nil(t, u.LockedUntil)
	assert.NotNil(t, u.LastLoginAt)
}

func TestMemoryRepository_RefreshTokens(t *testing.T) {
	r := memory.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	store := func(hash string, userID string, expires time.Time) {
		require.NoError(t, r.StoreRefreshToken(ctx, &domain.RefreshTokenRecord{
			ID:        hash + "-id",
			UserID:    userID,
			TokenHash: hash,
			ExpiresAt: expires,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	store("hash-a", "user-123", now.Add(time.Hour))
	store("hash-b", "user-123", now.Add(time.Hour))
	store("hash-c", "other-user", now.Add(-time.Hour))

	t.Run("conditional revoke claims once", func(t *testing.T) {
		claimed, err := r.RevokeRefreshToken(ctx, "hash-a")
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = r.RevokeRefreshToken(ctx, "hash-a")
		require.NoError(t, err)
		assert.False(t, claimed)

		claimed, err = r.RevokeRefreshToken(ctx, "never-stored")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("revoke all touches only live rows of the user", func(t *testing.T) {
		n, err := r.RevokeAllUserTokens(ctx, "user-123")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n) // hash-a already revoked

		rec, err := r.GetRefreshToken(ctx, "hash-c")
		require.NoError(t, err)
		assert.False(t, rec.Revoked)
	})

	t.Run("delete expired removes only stale rows", func(t *testing.T) {
		n, err := r.DeleteExpiredTokens(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		rec, err := r.GetRefreshToken(ctx, "hash-c")
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = r.GetRefreshToken(ctx, "hash-b")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})
}

func TestMemoryRepository_ContextCancellation(t *testing.T) {
	r := memory.NewMemoryRepository()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.GetByEmail(ctx, "test@example.com")
	assert.ErrorIs(t, err, context.Canceled)

	err = r.Create(ctx, &domain.User{ID: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
