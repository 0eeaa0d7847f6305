package domain

import (
	"fmt"
	"time"
)

// ChallengePurpose names the flow a one-time code was requested for.
type ChallengePurpose string

const (
	PurposeSignup ChallengePurpose = "signup"
	PurposeLogin  ChallengePurpose = "login"
)

func ParseChallengePurpose(s string) (ChallengePurpose, error) {
	switch ChallengePurpose(s) {
	case PurposeSignup, PurposeLogin:
		return ChallengePurpose(s), nil
	}
	return "", fmt.Errorf("unknown purpose %q: %w", s, ErrBadRequest)
}

// OTPChallenge is the single live code for an email. PK: email.
type OTPChallenge struct {
	Email     string           `json:"email"`
	Purpose   ChallengePurpose `json:"purpose"`
	Code      string           `json:"-"`
	IssuedAt  time.Time        `json:"issued_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// ExpiredAt is strict: the code is still valid at exactly ExpiresAt.
func (c *OTPChallenge) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// VerifyResult is the outcome of checking a submitted code.
type VerifyResult int

const (
	VerifyNotFound VerifyResult = iota
	VerifyVerified
	VerifyExpired
	VerifyMismatch
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyVerified:
		return "verified"
	case VerifyExpired:
		return "expired"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "not_found"
	}
}

// Err maps a failed result onto its sentinel; Verified maps to nil.
func (r VerifyResult) Err() error {
	switch r {
	case VerifyVerified:
		return nil
	case VerifyExpired:
		return ErrChallengeExpired
	case VerifyMismatch:
		return ErrChallengeMismatch
	default:
		return ErrChallengeNotFound
	}
}
