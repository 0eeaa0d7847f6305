package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionEnvelope is what a device sees of its auth state.
type SessionEnvelope struct {
	State    domain.AuthState      `json:"state"`
	Session  *domain.SessionRecord `json:"session,omitempty"`
	Degraded bool                  `json:"degraded,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ProfileEnvelope wraps signup and profile edit responses. Session is absent
// when the device session could not be refreshed after an edit.
type ProfileEnvelope struct {
	Profile *domain.Profile  `json:"profile"`
	Session *SessionEnvelope `json:"session,omitempty"`
}

// ChallengeEnvelope confirms an issued code without revealing it.
type ChallengeEnvelope struct {
	Email     string                  `json:"email"`
	Purpose   domain.ChallengePurpose `json:"purpose"`
	ExpiresAt time.Time               `json:"expires_at"`
}

type VerifyEnvelope struct {
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

type ChallengeStatusEnvelope struct {
	Pending          bool `json:"pending"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

func toSessionEnvelope(snap session.Snapshot) SessionEnvelope {
	env := SessionEnvelope{State: snap.State, Session: snap.Session, Degraded: snap.Degraded}
	if snap.LastError != nil {
		env.Error = snap.LastError.Error()
	}
	return env
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
