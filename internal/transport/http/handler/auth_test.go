package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLogin_InvalidBody(t *testing.T) {
	h := NewAuthHandler(newScopes().lookup)
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString("not-json"))
	rr := serveDevice(h.Login, r, "dev-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_ValidationFailure(t *testing.T) {
	h := NewAuthHandler(newScopes().lookup)
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", jsonBody(t, loginRequest{Email: "nope"}))
	rr := serveDevice(h.Login, r, "dev-1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestLogin_PassesHintToDeviceScope(t *testing.T) {
	sc := newScopes()
	snap := authed("id-1", "a@x.com", domain.AccountKindProvider)
	sc.device("dev-1").On("Login", mock.Anything, "a@x.com", "pw", domain.AccountKindProvider).Return(snap, nil)
	h := NewAuthHandler(sc.lookup)

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		jsonBody(t, loginRequest{Email: "a@x.com", Password: "pw", AccountKind: "provider"}))
	rr := serveDevice(h.Login, r, "dev-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decode[SessionEnvelope](t, rr)
	assert.Equal(t, domain.StateAuthenticated, env.State)
	assert.Equal(t, "id-1", env.Session.Identity.ID)
	sc.device("dev-1").AssertExpectations(t)
}

func TestLogin_UnknownHintFallsBackToEndUser(t *testing.T) {
	sc := newScopes()
	sc.device("dev-1").On("Login", mock.Anything, "a@x.com", "pw", domain.AccountKind("")).
		Return(authed("id-1", "a@x.com", domain.AccountKindEndUser), nil)
	h := NewAuthHandler(sc.lookup)

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		jsonBody(t, loginRequest{Email: "a@x.com", Password: "pw", AccountKind: "astronaut"}))
	rr := serveDevice(h.Login, r, "dev-1")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"bad password", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"store down", fmt.Errorf("%w: dial tcp", domain.ErrCredentialTransport), http.StatusServiceUnavailable},
		{"no profile", domain.ErrProfileNotFound, http.StatusNotFound},
		{"partition down", fmt.Errorf("%w: end_user by email: boom", domain.ErrResolution), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := newScopes()
			sc.device("dev-1").On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(session.Snapshot{State: domain.StateUnauthenticated, LastError: tc.err}, tc.err)
			h := NewAuthHandler(sc.lookup)

			r := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
				jsonBody(t, loginRequest{Email: "a@x.com", Password: "pw"}))
			rr := serveDevice(h.Login, r, "dev-1")

			assert.Equal(t, tc.code, rr.Code)
			env := decode[SessionEnvelope](t, rr)
			assert.Equal(t, domain.StateUnauthenticated, env.State)
			assert.Equal(t, tc.err.Error(), env.Error)
		})
	}
}

func TestBootstrap_ProfileMissingIsNotAnError(t *testing.T) {
	sc := newScopes()
	sc.device("dev-1").On("Bootstrap", mock.Anything).
		Return(session.Snapshot{State: domain.StateUnauthenticated, LastError: domain.ErrProfileNotFound}, nil)
	h := NewAuthHandler(sc.lookup)

	rr := serveDevice(h.Bootstrap, httptest.NewRequest(http.MethodPost, "/v1/auth/bootstrap", nil), "dev-1")

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decode[SessionEnvelope](t, rr)
	assert.Equal(t, domain.StateUnauthenticated, env.State)
	assert.Equal(t, domain.ErrProfileNotFound.Error(), env.Error)
}

func TestBootstrap_DegradedFlag(t *testing.T) {
	sc := newScopes()
	snap := authed("id-1", "a@x.com", domain.AccountKindEndUser)
	snap.Degraded = true
	sc.device("dev-1").On("Bootstrap", mock.Anything).Return(snap, nil)
	h := NewAuthHandler(sc.lookup)

	rr := serveDevice(h.Bootstrap, httptest.NewRequest(http.MethodPost, "/v1/auth/bootstrap", nil), "dev-1")
	assert.True(t, decode[SessionEnvelope](t, rr).Degraded)
}

func TestDevicesAreIsolated(t *testing.T) {
	sc := newScopes()
	sc.device("dev-a").On("CurrentState").Return(authed("id-1", "a@x.com", domain.AccountKindEndUser))
	sc.device("dev-b").On("CurrentState").Return(session.Snapshot{State: domain.StateUnauthenticated})
	h := NewAuthHandler(sc.lookup)

	a := serveDevice(h.State, httptest.NewRequest(http.MethodGet, "/v1/auth/state", nil), "dev-a")
	b := serveDevice(h.State, httptest.NewRequest(http.MethodGet, "/v1/auth/state", nil), "dev-b")

	assert.Equal(t, domain.StateAuthenticated, decode[SessionEnvelope](t, a).State)
	assert.Equal(t, domain.StateUnauthenticated, decode[SessionEnvelope](t, b).State)
}

func TestLogout_AlwaysUnauthenticated(t *testing.T) {
	sc := newScopes()
	sc.device("dev-1").On("Logout", mock.Anything).Return(session.Snapshot{State: domain.StateUnauthenticated}, nil)
	h := NewAuthHandler(sc.lookup)

	rr := serveDevice(h.Logout, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil), "dev-1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.StateUnauthenticated, decode[SessionEnvelope](t, rr).State)
}

func TestRefreshProfile_KindChangeIsConflict(t *testing.T) {
	sc := newScopes()
	snap := authed("id-1", "a@x.com", domain.AccountKindEndUser)
	sc.device("dev-1").On("RefreshProfile", mock.Anything).
		Return(snap, fmt.Errorf("account kind changed: %w", domain.ErrConflict))
	h := NewAuthHandler(sc.lookup)

	rr := serveDevice(h.RefreshProfile, httptest.NewRequest(http.MethodPost, "/v1/auth/refresh-profile", nil), "dev-1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, domain.StateAuthenticated, decode[SessionEnvelope](t, rr).State)
}

func TestAuth_MissingDeviceContext(t *testing.T) {
	h := NewAuthHandler(newScopes().lookup)
	rr := httptest.NewRecorder()
	h.State(rr, httptest.NewRequest(http.MethodGet, "/v1/auth/state", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
