package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- session scope mock ---

type mockScope struct{ mock.Mock }

func (m *mockScope) Bootstrap(ctx context.Context) (session.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Snapshot), args.Error(1)
}
func (m *mockScope) Login(ctx context.Context, email, password string, hinted domain.AccountKind) (session.Snapshot, error) {
	args := m.Called(ctx, email, password, hinted)
	return args.Get(0).(session.Snapshot), args.Error(1)
}
func (m *mockScope) Logout(ctx context.Context) (session.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Snapshot), args.Error(1)
}
func (m *mockScope) RefreshProfile(ctx context.Context) (session.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(session.Snapshot), args.Error(1)
}
func (m *mockScope) CurrentState() session.Snapshot {
	return m.Called().Get(0).(session.Snapshot)
}

// scopes records which device each lookup was for.
type scopes struct {
	byDevice map[string]*mockScope
}

func newScopes() *scopes { return &scopes{byDevice: map[string]*mockScope{}} }

func (s *scopes) lookup(deviceID string) SessionScope {
	sc, ok := s.byDevice[deviceID]
	if !ok {
		sc = new(mockScope)
		s.byDevice[deviceID] = sc
	}
	return sc
}

func (s *scopes) device(id string) *mockScope {
	return s.lookup(id).(*mockScope)
}

// --- requests ---

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// serveDevice runs h behind the device middleware with the given device id.
func serveDevice(h http.HandlerFunc, r *http.Request, deviceID string) *httptest.ResponseRecorder {
	r.Header.Set(middleware.DeviceHeader, deviceID)
	rr := httptest.NewRecorder()
	middleware.Device(h).ServeHTTP(rr, r)
	return rr
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func authed(id, email string, kind domain.AccountKind) session.Snapshot {
	return session.Snapshot{
		State: domain.StateAuthenticated,
		Session: &domain.SessionRecord{
			Identity:    domain.Identity{ID: id, Email: email},
			AccountKind: kind,
		},
	}
}
