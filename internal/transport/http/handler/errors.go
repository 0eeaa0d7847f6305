package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-consult-auth/internal/domain"
)

// statusFor maps domain sentinels onto HTTP status codes. Order matters:
// wrapped transport failures win over whatever they wrap.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCredentialTransport):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrResolution), errors.Is(err, domain.ErrDispatchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrChallengeExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrChallengeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// httpError writes err with its mapped status. Unclassified errors are
// logged and replaced by a generic message.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
