package domain

import "time"

// RemoteSession is a credential-store session issued by a successful sign-in.
// Token is the signed bearer handed to the device and is never persisted server-side.
type RemoteSession struct {
	SessionID  string    `json:"id" dynamodbav:"session_id"`
	IdentityID string    `json:"identity_id" dynamodbav:"identity_id"`
	Email      string    `json:"email" dynamodbav:"email"`
	DeviceID   string    `json:"device_id" dynamodbav:"device_id"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	ExpiresAt  int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
	Token      string    `json:"-" dynamodbav:"-"`
}

// Identity returns the identity the session was issued for.
func (s *RemoteSession) Identity() Identity {
	return Identity{ID: s.IdentityID, Email: s.Email}
}

// SessionRecord is the locally cached answer to "who is logged in on this device".
type SessionRecord struct {
	Identity    Identity    `json:"identity"`
	Profile     *Profile    `json:"profile"`
	AccountKind AccountKind `json:"account_kind"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// ExpiredAt reports whether the record has outlived ttl at now.
// A record exactly ttl old is already expired.
func (r *SessionRecord) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.IssuedAt) >= ttl
}

// AuthState is the externally visible state of a device session.
type AuthState string

const (
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticating  AuthState = "authenticating"
	StateAuthenticated   AuthState = "authenticated"
	StateError           AuthState = "error"
)
