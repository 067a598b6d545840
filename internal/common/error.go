// Package common defines shared constants and sentinel errors used across
// the auth core, its repositories and transports. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("invalid credentials")

	// Input errors. Wrapped with a caller-safe detail, e.g.
	// fmt.Errorf("%w: username is required", ErrorValidation).
	ErrorValidation = errors.New("validation error")

	// Session token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh token lifecycle errors. These stay distinguishable so that
	// callers can tell why a rotation was refused.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")

	// Credential errors.
	ErrCurrentPasswordIncorrect = errors.New("current password incorrect")
)

// IsAuthError reports whether err belongs to the authentication class:
// bad credentials, or an invalid, revoked or expired token.
func IsAuthError(err error) bool {
	switch {
	case errors.Is(err, ErrorUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrRefreshTokenNotFound),
		errors.Is(err, ErrRefreshTokenRevoked),
		errors.Is(err, ErrRefreshTokenExpired),
		errors.Is(err, ErrCurrentPasswordIncorrect):
		return true
	}
	return false
}
