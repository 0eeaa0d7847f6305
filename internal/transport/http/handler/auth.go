package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/pkg/validate"
	"github.com/go-consult-auth/internal/transport/http/middleware"
)

// SessionScope is the auth state of one device.
type SessionScope interface {
	Bootstrap(ctx context.Context) (session.Snapshot, error)
	Login(ctx context.Context, email, password string, hinted domain.AccountKind) (session.Snapshot, error)
	Logout(ctx context.Context) (session.Snapshot, error)
	RefreshProfile(ctx context.Context) (session.Snapshot, error)
	CurrentState() session.Snapshot
}

// Sessions looks up the scope of a device, creating it on first use.
type Sessions func(deviceID string) SessionScope

type loginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	AccountKind string `json:"account_kind"`
}

// AuthHandler drives the per-device session reconciler.
type AuthHandler struct {
	sessions Sessions
}

func NewAuthHandler(sessions Sessions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

func (h *AuthHandler) scope(w http.ResponseWriter, r *http.Request) (SessionScope, bool) {
	deviceID, ok := middleware.DeviceFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing device id")
		return nil, false
	}
	return h.sessions(deviceID), true
}

// respond writes the snapshot; a failed operation keeps the snapshot in the
// body so the client can render the settled state.
func respond(w http.ResponseWriter, snap session.Snapshot, err error) {
	env := toSessionEnvelope(snap)
	if err != nil {
		env.Error = err.Error()
		writeJSON(w, statusFor(err), env)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *AuthHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	snap, err := sc.Bootstrap(r.Context())
	respond(w, snap, err)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, err)
		return
	}
	// An unknown hint resolves as end user.
	hint, _ := domain.ParseAccountKind(req.AccountKind)
	snap, err := sc.Login(r.Context(), req.Email, req.Password, hint)
	respond(w, snap, err)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	snap, err := sc.Logout(r.Context())
	respond(w, snap, err)
}

func (h *AuthHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	snap, err := sc.RefreshProfile(r.Context())
	respond(w, snap, err)
}

func (h *AuthHandler) State(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.scope(w, r)
	if !ok {
		return
	}
	respond(w, sc.CurrentState(), nil)
}
