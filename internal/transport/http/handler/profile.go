package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/transport/http/middleware"
)

type profileService interface {
	UpdateEndUser(ctx context.Context, identityID string, req domain.UpdateEndUserRequest) (*domain.EndUserProfile, error)
	UpdateProvider(ctx context.Context, identityID string, req domain.UpdateProviderRequest) (*domain.ProviderProfile, error)
}

// ProfileHandler edits the profile of the identity logged in on the device.
type ProfileHandler struct {
	svc      profileService
	sessions Sessions
}

func NewProfileHandler(svc profileService, sessions Sessions) *ProfileHandler {
	return &ProfileHandler{svc: svc, sessions: sessions}
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	deviceID, _ := middleware.DeviceFromContext(r.Context())

	var p *domain.Profile
	switch rec.AccountKind {
	case domain.AccountKindProvider:
		var req domain.UpdateProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		pp, err := h.svc.UpdateProvider(r.Context(), rec.Identity.ID, req)
		if err != nil {
			httpError(w, r, err)
			return
		}
		p = domain.NewProviderProfile(pp)
	default:
		var req domain.UpdateEndUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		eu, err := h.svc.UpdateEndUser(r.Context(), rec.Identity.ID, req)
		if err != nil {
			httpError(w, r, err)
			return
		}
		p = domain.NewEndUserProfile(eu)
	}

	env := ProfileEnvelope{Profile: p}
	snap, err := h.sessions(deviceID).RefreshProfile(r.Context())
	if err != nil {
		slog.Warn("session refresh after profile edit failed", "device_id", deviceID,
			"identity_id", rec.Identity.ID, "err", err)
	} else {
		s := toSessionEnvelope(snap)
		env.Session = &s
	}
	writeJSON(w, http.StatusOK, env)
}
