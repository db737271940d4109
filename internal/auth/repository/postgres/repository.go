// Package postgres implements the credential store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

// PgxIface is the slice of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db PgxIface
}

func NewPostgresRepository(db PgxIface) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, is_active,
	email_verified, email_verified_at, last_login_at, login_attempts, locked_until,
	created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Active, &u.EmailVerified, &u.EmailVerifiedAt, &u.LastLoginAt,
		&u.LoginAttempts, &u.LockedUntil, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_active,
			email_verified, login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Active, user.EmailVerified, user.LoginAttempts, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return autherror.ErrEmailAlreadyInUse
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET is_active = false, updated_at = now() WHERE id = $1
	`, userID)
	return err
}

// IncrementLoginAttempts bumps the counter in a single statement and
// returns the new value, so concurrent failures each see a distinct
// count and only one observes the lockout threshold.
func (r *PostgresRepository) IncrementLoginAttempts(ctx context.Context, userID string) (int, error) {
	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET login_attempts = login_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING login_attempts
	`, userID).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to increment login attempts: %w", err)
	}
	return attempts, nil
}

func (r *PostgresRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET locked_until = $2, login_attempts = 0, updated_at = now()
		WHERE id = $1
	`, userID, until)
	return err
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET last_login_at = now(), login_attempts = 0, locked_until = NULL, updated_at = now()
		WHERE id = $1
	`, userID)
	return err
}

func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.Revoked, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	var rec domain.RefreshTokenRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at, updated_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt,
		&rec.Revoked, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &rec, nil
}

// RevokeRefreshToken performs a conditional update guarded on
// revoked = false. Zero rows affected means the token was already
// spent or never existed; the caller decides what that means.
func (r *PostgresRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = true, updated_at = now()
		WHERE token_hash = $1 AND revoked = false
	`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) RevokeAllUserTokens(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = true, updated_at = now()
		WHERE user_id = $1 AND revoked = false
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
