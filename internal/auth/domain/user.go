package domain

import "time"

// User is the identity record of the credential store. Email is stored
// lowercase and is case-insensitively unique. LoginAttempts and
// LockedUntil are mutated only by the session service lockout policy.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Active          bool
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	LoginAttempts   int
	LockedUntil     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Locked reports whether the account is locked at the given instant.
// Lock expiry is evaluated lazily; there is no explicit unlock.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// RefreshTokenRecord persists the sha256 hash of an issued refresh token.
// The raw token is never stored. Several live rows may exist per user
// (multi-device sessions); revoked and expired rows await the sweep.
type RefreshTokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
