// Package memory implements the credential store in process memory.
// The composition root selects it when no database URL is configured;
// the flow tests run the session service against it.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

type MemoryRepository struct {
	mu     sync.Mutex
	users  map[string]*domain.User               // keyed by id
	emails map[string]string                     // email -> id
	tokens map[string]*domain.RefreshTokenRecord // keyed by token hash
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]*domain.User),
		emails: make(map[string]string),
		tokens: make(map[string]*domain.RefreshTokenRecord),
	}
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.emails[email]
	if !ok {
		return nil, nil
	}
	u := *r.users[id]
	return &u, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emails[user.Email]; exists {
		return autherror.ErrEmailAlreadyInUse
	}
	cp := *user
	r.users[user.ID] = &cp
	r.emails[user.Email] = user.ID
	return nil
}

func (r *MemoryRepository) Deactivate(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok {
		u.Active = false
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryRepository) IncrementLoginAttempts(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return 0, nil
	}
	u.LoginAttempts++
	u.UpdatedAt = time.Now()
	return u.LoginAttempts, nil
}

func (r *MemoryRepository) LockAccount(ctx context.Context, userID string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok {
		u.LockedUntil = &until
		u.LoginAttempts = 0
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
		u.LoginAttempts = 0
		u.LockedUntil = nil
		u.UpdatedAt = now
	}
	return nil
}

func (r *MemoryRepository) StoreRefreshToken(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	r.tokens[rec.TokenHash] = &cp
	return nil
}

func (r *MemoryRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[tokenHash]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[tokenHash]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	rec.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) RevokeAllUserTokens(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, rec := range r.tokens {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			rec.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var n int64
	for hash, rec := range r.tokens {
		if rec.ExpiresAt.Before(now) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}
