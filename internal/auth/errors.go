package auth

import "errors"

// Domain errors for the auth package.
var (
	// ErrTokenInvalid is returned for malformed, expired or badly signed tokens.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrInvalidCredentials is returned when a client name or secret does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUnknownRole is returned for a role outside viewer and operator.
	ErrUnknownRole = errors.New("auth: unknown role")

	// ErrInvalidHash is returned when a stored secret hash cannot be decoded.
	ErrInvalidHash = errors.New("auth: invalid secret hash")

	// ErrSecretTooShort is returned when the signing secret is too short.
	ErrSecretTooShort = errors.New("auth: jwt secret too short")
)
