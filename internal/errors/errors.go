// Package errors defines the typed domain errors of the auth core.
// Handlers map the kind to an HTTP status; anything that is not an *Error
// is treated as internal and never surfaced to clients.
package errors

import "errors"

type Kind string

const (
	KindValidation     Kind = "validation"
	KindUnauthorized   Kind = "unauthorized"
	KindConflict       Kind = "conflict"
	KindTokenExpired   Kind = "token_expired"
	KindInvalidToken   Kind = "invalid_token"
	KindWrongTokenType Kind = "wrong_token_type"
	KindConfiguration  Kind = "configuration"
)

// Error is a domain failure with a stable machine-readable kind and a
// human message safe to return to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf reports the kind of err when it is (or wraps) a domain *Error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

var (
	// Unknown email and wrong password share one message on purpose so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = New(KindUnauthorized, "invalid email or password")
	ErrAccountLocked      = New(KindUnauthorized, "account temporarily locked")
	ErrUnauthorized       = New(KindUnauthorized, "unauthorized")

	ErrEmailAlreadyInUse = New(KindConflict, "email already in use")

	ErrInvalidRefreshToken = New(KindInvalidToken, "invalid refresh token")
	ErrTokenExpired        = New(KindTokenExpired, "token expired")
	ErrTokenNotYetValid    = New(KindInvalidToken, "token not yet valid")
	ErrTokenMalformed      = New(KindInvalidToken, "malformed token")
	ErrWrongTokenType      = New(KindWrongTokenType, "wrong token type")
)
