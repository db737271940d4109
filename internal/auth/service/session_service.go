package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aegisx-boilerplate/aegisx-auth/config"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/domain"
	"github.com/aegisx-boilerplate/aegisx-auth/internal/auth/dto"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
	"github.com/aegisx-boilerplate/aegisx-auth/pkg/logger"
)

const tokenTypeBearer = "Bearer"

// SessionService orchestrates login, registration, refresh and logout
// over an injected credential store and token codec. It holds no state
// of its own and is safe for concurrent use.
type SessionService struct {
	repo   domain.UserRepository
	tokens TokenGenerator
	cfg    *config.Config
}

func NewSessionService(repo domain.UserRepository, tokens TokenGenerator, cfg *config.Config) *SessionService {
	return &SessionService{
		repo:   repo,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Login authenticates the credentials and returns a fresh token pair.
// Unknown email, inactive account and wrong password all fail with the
// same error. Failed attempts feed the lockout policy; a lock is
// evaluated lazily against locked_until on the next attempt.
func (s *SessionService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResult, error) {
	email := normalizeEmail(input.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, autherror.ErrInvalidCredentials
	}

	if user.Locked(time.Now()) {
		return nil, autherror.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, s.recordFailedAttempt(ctx, user.ID)
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	return &dto.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         publicView(user),
	}, nil
}

// recordFailedAttempt bumps the counter and locks the account when the
// threshold is reached. The increment returns the new count atomically,
// so exactly one of several concurrent failures triggers the lock.
func (s *SessionService) recordFailedAttempt(ctx context.Context, userID string) error {
	attempts, err := s.repo.IncrementLoginAttempts(ctx, userID)
	if err != nil {
		return err
	}

	if attempts >= s.cfg.Auth.MaxLoginAttempts {
		until := time.Now().Add(s.cfg.Auth.LockoutDuration)
		if err := s.repo.LockAccount(ctx, userID, until); err != nil {
			return err
		}
		logger.Warn().
			Str("user_id", userID).
			Time("locked_until", until).
			Msg("account locked after repeated failed logins")
	}

	return autherror.ErrInvalidCredentials
}

// Register creates a user and logs it in. The duplicate check is also
// backed by the store's unique index, which closes the race between two
// concurrent registrations of the same email.
func (s *SessionService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResult, error) {
	email := normalizeEmail(input.Email)

	if email == "" || input.Password == "" || input.FirstName == "" || input.LastName == "" {
		return nil, autherror.New(autherror.KindValidation, "email, password, first name and last name are required")
	}
	if len(input.Password) < s.cfg.Auth.MinPasswordLength {
		return nil, autherror.New(autherror.KindValidation, "password too short")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         publicView(user),
	}, nil
}

// Refresh rotates the presented refresh token: the old record is revoked
// before a new pair is issued, so a token can only ever be spent once.
// A reused (stolen-then-rotated) token fails here, which is the core
// anti-replay defense.
func (s *SessionService) Refresh(ctx context.Context, rawRefreshToken string) (*dto.TokenPairOutput, error) {
	hash := HashToken(rawRefreshToken)

	rec, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Revoked || rec.ExpiresAt.Before(time.Now()) {
		return nil, autherror.ErrInvalidRefreshToken
	}

	// A valid token whose owner is gone must not fail distinctly.
	user, err := s.repo.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, autherror.ErrInvalidRefreshToken
	}

	// Claim the token. Zero rows affected means a concurrent refresh
	// already spent it.
	claimed, err := s.repo.RevokeRefreshToken(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, autherror.ErrInvalidRefreshToken
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPairOutput{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the presented refresh token. Revoking an already
// revoked or unknown token is not an error, and an empty token is a
// no-op.
func (s *SessionService) Logout(ctx context.Context, rawRefreshToken string) error {
	if rawRefreshToken == "" {
		return nil
	}
	_, err := s.repo.RevokeRefreshToken(ctx, HashToken(rawRefreshToken))
	return err
}

// LogoutAll revokes every live refresh token of the user ("sign out
// everywhere").
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.repo.RevokeAllUserTokens(ctx, userID)
	if err != nil {
		return err
	}
	logger.Info().Str("user_id", userID).Int64("revoked", n).Msg("revoked all user sessions")
	return nil
}

// CurrentUser resolves the access token to the stored user. Identity is
// re-read from the store on every call; embedded claims are never
// trusted beyond display.
func (s *SessionService) CurrentUser(ctx context.Context, accessToken string) (*dto.UserOutput, error) {
	claims, err := s.tokens.VerifyKind(accessToken, TokenKindAccess)
	if err != nil {
		return nil, autherror.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, autherror.ErrUnauthorized
	}

	view := publicView(user)
	return &view, nil
}

// CleanupExpiredTokens deletes refresh-token rows whose expiry has
// passed. It never revokes a live token and is safe to run repeatedly;
// the composition root schedules it.
func (s *SessionService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info().Int64("deleted", n).Msg("swept expired refresh tokens")
	}
	return n, nil
}

// issuePair mints a fresh access+refresh pair and persists the hash of
// the refresh token with a matching expiry.
func (s *SessionService) issuePair(ctx context.Context, user *domain.User) (string, string, error) {
	access, _, err := s.tokens.Issue(TokenKindAccess, user.ID, user.Email)
	if err != nil {
		return "", "", err
	}

	refresh, claims, err := s.tokens.Issue(TokenKindRefresh, user.ID, user.Email)
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	rec := &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: HashToken(refresh),
		ExpiresAt: claims.ExpiresAt.Time,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.StoreRefreshToken(ctx, rec); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func publicView(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashToken returns the hex sha256 of a raw refresh token. Only this
// hash is ever persisted, so a leaked table cannot be replayed directly.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
