package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSession_Unauthenticated(t *testing.T) {
	current := func(string) session.Snapshot { return session.Snapshot{State: domain.StateUnauthenticated} }
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set(DeviceHeader, "dev-1")
	rr := httptest.NewRecorder()
	Device(RequireSession(current)(http.HandlerFunc(okHandler))).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireSession_NoDevice(t *testing.T) {
	current := func(string) session.Snapshot { return session.Snapshot{} }
	rr := httptest.NewRecorder()
	RequireSession(current)(http.HandlerFunc(okHandler)).ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequireSession_InjectsRecordForDevice(t *testing.T) {
	rec := &domain.SessionRecord{Identity: domain.Identity{ID: "id-1", Email: "a@x.com"}, AccountKind: domain.AccountKindProvider}
	var asked string
	current := func(deviceID string) session.Snapshot {
		asked = deviceID
		return session.Snapshot{State: domain.StateAuthenticated, Session: rec}
	}

	var got *domain.SessionRecord
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	req.Header.Set(DeviceHeader, "dev-9")
	rr := httptest.NewRecorder()
	Device(RequireSession(current)(capture)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dev-9", asked)
	require.NotNil(t, got)
	assert.Equal(t, "id-1", got.Identity.ID)
}
