package middleware

import (
	"context"
	"net/http"

	pkgdevice "github.com/go-consult-auth/internal/pkg/device"
)

// DeviceHeader carries the caller's device scope in both directions.
const DeviceHeader = "X-Device-ID"

type contextKey string

const (
	deviceKey  contextKey = "device"
	sessionKey contextKey = "session"
)

// Device resolves the device scope of the request. A missing header gets a
// fresh id, which is echoed back so the client can keep it.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(DeviceHeader)
		if id == "" {
			id = pkgdevice.New()
		} else {
			normalized, err := pkgdevice.Normalize(id)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid device id")
				return
			}
			id = normalized
		}
		w.Header().Set(DeviceHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey, id)))
	})
}

// DeviceFromContext returns the device id set by Device.
func DeviceFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(deviceKey).(string)
	return id, ok && id != ""
}
