package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/aegisx-boilerplate/aegisx-auth/internal/auth/service TokenGenerator

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aegisx-boilerplate/aegisx-auth/config"
	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

// TokenKind tags a token as access or refresh. A token is only accepted
// by the verification call that matches its kind.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenGenerator is the codec contract the session service depends on.
type TokenGenerator interface {
	Issue(kind TokenKind, userID, email string) (string, *Claims, error)
	Verify(tokenString string) (*Claims, error)
	VerifyKind(tokenString string, kind TokenKind) (*Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Claims is the payload carried by both token kinds. The registered
// Subject holds the user id; ID holds the jti.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	TokenType string `json:"type"`
}

// TokenService issues and verifies signed, self-contained tokens. It
// performs no database lookups; revocation is the session service's job.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService validates the signing configuration up front. A short
// secret, unset TTL or issuer, or an unsupported algorithm is a startup
// failure, not a per-call check.
func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if len(cfg.Secret) < 32 {
		return nil, autherror.New(autherror.KindConfiguration, "signing secret must be at least 32 bytes")
	}
	if cfg.Issuer == "" {
		return nil, autherror.New(autherror.KindConfiguration, "token issuer must be set")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, autherror.New(autherror.KindConfiguration, "token TTLs must be positive")
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, autherror.New(autherror.KindConfiguration, "unsupported signing algorithm "+cfg.Algorithm)
	}

	return &TokenService{
		secret:     []byte(cfg.Secret),
		method:     method,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// Issue signs a token of the given kind for the user. Every call mints a
// fresh crypto-random jti; jtis are never reused across calls.
func (ts *TokenService) Issue(kind TokenKind, userID, email string) (string, *Claims, error) {
	now := time.Now()

	ttl := ts.accessTTL
	if kind == TokenKindRefresh {
		ttl = ts.refreshTTL
	}

	claims := &Claims{
		Email:     email,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    ts.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(ts.method, claims).SignedString(ts.secret)
	if err != nil {
		return "", nil, err
	}

	return signed, claims, nil
}

// Verify validates signature, issuer and time claims, and returns the
// payload. It does not check revocation.
func (ts *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return ts.secret, nil
		},
		jwt.WithValidMethods([]string{ts.method.Alg()}),
		jwt.WithIssuer(ts.issuer),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, autherror.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, autherror.ErrTokenNotYetValid
		default:
			return nil, autherror.ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, autherror.ErrTokenMalformed
	}

	return claims, nil
}

// VerifyKind verifies the token and additionally requires its kind to
// match. An access token is never accepted where a refresh token is
// required, and vice versa.
func (ts *TokenService) VerifyKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := ts.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != string(kind) {
		return nil, autherror.ErrWrongTokenType
	}
	return claims, nil
}

func (ts *TokenService) AccessTTL() time.Duration  { return ts.accessTTL }
func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// ExtractBearer parses an "Authorization: Bearer <token>" header value.
// It returns "" on malformed input; callers decide whether absence is
// fatal.
func ExtractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
