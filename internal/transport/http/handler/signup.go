package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-consult-auth/internal/domain"
)

type signupService interface {
	SignUpEndUser(ctx context.Context, req domain.SignUpEndUserRequest) (*domain.EndUserProfile, error)
	SignUpProvider(ctx context.Context, req domain.SignUpProviderRequest) (*domain.ProviderProfile, error)
}

// SignupHandler creates accounts in either partition.
type SignupHandler struct {
	svc signupService
}

func NewSignupHandler(svc signupService) *SignupHandler { return &SignupHandler{svc: svc} }

func (h *SignupHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseAccountKind(chi.URLParam(r, "kind"))
	if err != nil || chi.URLParam(r, "kind") == "" {
		writeError(w, http.StatusNotFound, "unknown account kind")
		return
	}

	var p *domain.Profile
	switch kind {
	case domain.AccountKindProvider:
		var req domain.SignUpProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		pp, err := h.svc.SignUpProvider(r.Context(), req)
		if err != nil {
			httpError(w, r, err)
			return
		}
		p = domain.NewProviderProfile(pp)
	default:
		var req domain.SignUpEndUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		eu, err := h.svc.SignUpEndUser(r.Context(), req)
		if err != nil {
			httpError(w, r, err)
			return
		}
		p = domain.NewEndUserProfile(eu)
	}
	writeJSON(w, http.StatusCreated, ProfileEnvelope{Profile: p})
}
