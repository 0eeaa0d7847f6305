package middleware

import (
	"context"
	"net/http"

	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/domain"
)

// RequireSession lets the request through only when the device is
// authenticated, and injects the session record into context. It must run
// after Device.
func RequireSession(current func(deviceID string) session.Snapshot) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, ok := DeviceFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusBadRequest, "missing device id")
				return
			}
			snap := current(deviceID)
			if snap.State != domain.StateAuthenticated || snap.Session == nil {
				writeJSONError(w, http.StatusUnauthorized, "not logged in on this device")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, snap.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the session record injected by RequireSession.
func SessionFromContext(ctx context.Context) (*domain.SessionRecord, bool) {
	rec, ok := ctx.Value(sessionKey).(*domain.SessionRecord)
	return rec, ok && rec != nil
}
