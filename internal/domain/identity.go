package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountKind discriminates the two profile partitions.
type AccountKind string

const (
	AccountKindEndUser  AccountKind = "end_user"
	AccountKindProvider AccountKind = "provider"
)

// Valid reports whether k names one of the two partitions.
func (k AccountKind) Valid() bool {
	return k == AccountKindEndUser || k == AccountKindProvider
}

// Other returns the opposite partition.
func (k AccountKind) Other() AccountKind {
	if k == AccountKindProvider {
		return AccountKindEndUser
	}
	return AccountKindProvider
}

// ParseAccountKind accepts both the stored form ("end_user") and the URL form ("end-user").
// An empty string resolves to AccountKindEndUser.
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "end_user", "end-user", "user":
		return AccountKindEndUser, nil
	case "provider":
		return AccountKindProvider, nil
	}
	return "", fmt.Errorf("unknown account kind %q: %w", s, ErrBadRequest)
}

// Identity is the stable (id, email) pair issued by the credential store.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HasEmail compares case-insensitively.
func (i Identity) HasEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(i.Email), strings.TrimSpace(email))
}

// NormalizeEmail is the canonical form used for storage keys and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credential is the password record behind an Identity.
// PK: identity_id, GSI: email-index.
type Credential struct {
	IdentityID   string    `json:"id" dynamodbav:"identity_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Identity returns the public half of the credential.
func (c *Credential) Identity() Identity {
	return Identity{ID: c.IdentityID, Email: c.Email}
}
