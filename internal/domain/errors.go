package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Credential store failures. ErrInvalidCredentials is retryable by the user,
// ErrCredentialTransport means the store could not be reached.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrCredentialTransport = errors.New("credential store unavailable")
)

// Profile resolution failures. A remote session can exist without a profile,
// which is reported as ErrProfileNotFound and is not a security error.
var (
	ErrProfileNotFound = errors.New("account exists but profile missing")
	ErrResolution      = errors.New("profile resolution failed")
)

// One-time code failures, one per user-facing message on the code entry screen.
var (
	ErrChallengeNotFound = errors.New("no code was requested for this email")
	ErrChallengeExpired  = errors.New("code expired, request a new one")
	ErrChallengeMismatch = errors.New("code does not match")
	ErrDispatchFailed    = errors.New("code delivery failed")
)
