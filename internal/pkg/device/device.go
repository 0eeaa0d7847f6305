package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-consult-auth/internal/domain"
	"github.com/google/uuid"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// New mints an identifier for a device that did not present one.
func New() string {
	return uuid.NewString()
}

// Normalize trims and checks a client-supplied device id. The result is used
// verbatim inside storage keys, so only a conservative charset is accepted.
func Normalize(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !validID.MatchString(id) {
		return "", fmt.Errorf("invalid device id: %w", domain.ErrBadRequest)
	}
	return id, nil
}

// SessionKey is the blob key for a device's cached session record.
func SessionKey(deviceID string) string {
	return "session:" + deviceID
}

// TokenKey is the blob key for a device's remote session token.
func TokenKey(deviceID string) string {
	return "remote_session:" + deviceID
}
