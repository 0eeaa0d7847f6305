package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDevice(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = DeviceFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestDevice_KeepsValidHeader(t *testing.T) {
	var got string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceHeader, "phone-1")
	rr := httptest.NewRecorder()
	Device(captureDevice(&got)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "phone-1", got)
	assert.Equal(t, "phone-1", rr.Header().Get(DeviceHeader))
}

func TestDevice_AssignsIDWhenMissing(t *testing.T) {
	var got string
	rr := httptest.NewRecorder()
	Device(captureDevice(&got)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, got)
	assert.Equal(t, got, rr.Header().Get(DeviceHeader))
}

func TestDevice_RejectsMalformedHeader(t *testing.T) {
	var got string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DeviceHeader, "../../etc/passwd")
	rr := httptest.NewRecorder()
	Device(captureDevice(&got)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, got)
}
