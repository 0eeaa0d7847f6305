package domain

import "time"

type AuthEventType string

const (
	EventLoginSucceeded        AuthEventType = "login.succeeded"
	EventLoginFailed           AuthEventType = "login.failed"
	EventLogout                AuthEventType = "logout"
	EventBootstrapCache        AuthEventType = "bootstrap.cache"
	EventBootstrapRemote       AuthEventType = "bootstrap.remote"
	EventBootstrapStale        AuthEventType = "bootstrap.stale_fallback"
	EventProfileRefreshed      AuthEventType = "profile.refreshed"
	EventChallengeIssued       AuthEventType = "otp.issued"
	EventChallengeVerified     AuthEventType = "otp.verified"
	EventChallengeDispatchFail AuthEventType = "otp.dispatch_failed"
)

// AuthEvent is an observability record of an authentication decision.
type AuthEvent struct {
	Type        AuthEventType `json:"type"`
	DeviceID    string        `json:"device_id,omitempty"`
	IdentityID  string        `json:"identity_id,omitempty"`
	Email       string        `json:"email,omitempty"`
	AccountKind AccountKind   `json:"account_kind,omitempty"`
	Detail      string        `json:"detail,omitempty"`
	At          time.Time     `json:"at"`
}
