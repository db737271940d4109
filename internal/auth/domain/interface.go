package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserRepository is the credential-store contract the session service
// depends on. Lookups return (nil, nil) when no row exists. All mutable
// session state lives behind this interface; the service itself is
// stateless.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) error

	// Deactivate soft-deletes a user by clearing the active flag.
	// Users are never hard-deleted by this core.
	Deactivate(ctx context.Context, userID string) error

	// IncrementLoginAttempts atomically bumps the failed-attempt counter
	// and returns the new value, so exactly one concurrent caller
	// observes the lockout threshold.
	IncrementLoginAttempts(ctx context.Context, userID string) (int, error)

	// LockAccount sets locked_until and resets the attempt counter.
	LockAccount(ctx context.Context, userID string, until time.Time) error

	// UpdateLastLogin stamps a successful login: sets last_login_at,
	// resets the attempt counter and clears any lock.
	UpdateLastLogin(ctx context.Context, userID string) error

	StoreRefreshToken(ctx context.Context, rec *RefreshTokenRecord) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error)

	// RevokeRefreshToken marks the record revoked only if it is still
	// live, reporting whether this caller claimed it. A false return on
	// refresh means the token was already spent.
	RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error)

	RevokeAllUserTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredTokens removes rows with expires_at in the past and
	// returns how many were deleted. Safe to run concurrently.
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}
