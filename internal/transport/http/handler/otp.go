package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/go-consult-auth/internal/pkg/validate"
)

type otpService interface {
	Issue(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error)
	Verify(ctx context.Context, email, code string) (domain.VerifyResult, error)
	Resend(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error)
	RemainingTime(ctx context.Context, email string) (time.Duration, error)
}

type sendCodeRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"required"`
}

type verifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

// OTPHandler exposes one-time code issue and verification.
type OTPHandler struct {
	svc otpService
}

func NewOTPHandler(svc otpService) *OTPHandler { return &OTPHandler{svc: svc} }

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.svc.Issue)
}

func (h *OTPHandler) Resend(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.svc.Resend)
}

func (h *OTPHandler) issue(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, string, domain.ChallengePurpose) (*domain.OTPChallenge, error)) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, err)
		return
	}
	purpose, err := domain.ParseChallengePurpose(req.Purpose)
	if err != nil {
		httpError(w, r, err)
		return
	}
	c, err := fn(r.Context(), req.Email, purpose)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ChallengeEnvelope{Email: c.Email, Purpose: c.Purpose, ExpiresAt: c.ExpiresAt})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpError(w, r, err)
		return
	}
	res, err := h.svc.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if err := res.Err(); err != nil {
		writeJSON(w, statusFor(err), VerifyEnvelope{Result: res.String(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{Result: res.String()})
}

func (h *OTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "email required")
		return
	}
	left, err := h.svc.RemainingTime(r.Context(), email)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChallengeStatusEnvelope{Pending: left > 0, RemainingSeconds: int(left / time.Second)})
}
