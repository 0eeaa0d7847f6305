package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-consult-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockOTP struct{ mock.Mock }

func (m *mockOTP) Issue(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, email, purpose)
	if c, _ := args.Get(0).(*domain.OTPChallenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTP) Verify(ctx context.Context, email, code string) (domain.VerifyResult, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(domain.VerifyResult), args.Error(1)
}
func (m *mockOTP) Resend(ctx context.Context, email string, purpose domain.ChallengePurpose) (*domain.OTPChallenge, error) {
	args := m.Called(ctx, email, purpose)
	if c, _ := args.Get(0).(*domain.OTPChallenge); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOTP) RemainingTime(ctx context.Context, email string) (time.Duration, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(time.Duration), args.Error(1)
}

func TestSend_AcceptedWithoutCode(t *testing.T) {
	exp := time.Date(2026, 5, 1, 10, 5, 0, 0, time.UTC)
	svc := new(mockOTP)
	svc.On("Issue", mock.Anything, "a@x.com", domain.PurposeSignup).
		Return(&domain.OTPChallenge{Email: "a@x.com", Purpose: domain.PurposeSignup, Code: "123456", ExpiresAt: exp}, nil)
	h := NewOTPHandler(svc)

	rr := httptest.NewRecorder()
	h.Send(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/send", jsonBody(t, sendCodeRequest{Email: "a@x.com", Purpose: "signup"})))

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.NotContains(t, rr.Body.String(), "123456")
	env := decode[ChallengeEnvelope](t, rr)
	assert.True(t, exp.Equal(env.ExpiresAt))
}

func TestSend_UnknownPurpose(t *testing.T) {
	rr := httptest.NewRecorder()
	NewOTPHandler(new(mockOTP)).Send(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/send",
		jsonBody(t, sendCodeRequest{Email: "a@x.com", Purpose: "reset"})))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestResend_UsesResend(t *testing.T) {
	svc := new(mockOTP)
	svc.On("Resend", mock.Anything, "a@x.com", domain.PurposeLogin).
		Return(&domain.OTPChallenge{Email: "a@x.com", Purpose: domain.PurposeLogin}, nil)
	rr := httptest.NewRecorder()
	NewOTPHandler(svc).Resend(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/resend",
		jsonBody(t, sendCodeRequest{Email: "a@x.com", Purpose: "login"})))
	assert.Equal(t, http.StatusAccepted, rr.Code)
	svc.AssertExpectations(t)
}

func TestVerify_Results(t *testing.T) {
	cases := []struct {
		result domain.VerifyResult
		code   int
	}{
		{domain.VerifyVerified, http.StatusOK},
		{domain.VerifyMismatch, http.StatusBadRequest},
		{domain.VerifyExpired, http.StatusGone},
		{domain.VerifyNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.result.String(), func(t *testing.T) {
			svc := new(mockOTP)
			svc.On("Verify", mock.Anything, "a@x.com", "654321").Return(tc.result, nil)
			rr := httptest.NewRecorder()
			NewOTPHandler(svc).Verify(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/verify",
				jsonBody(t, verifyCodeRequest{Email: "a@x.com", Code: "654321"})))

			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, tc.result.String(), decode[VerifyEnvelope](t, rr).Result)
		})
	}
}

func TestVerify_MalformedCode(t *testing.T) {
	rr := httptest.NewRecorder()
	NewOTPHandler(new(mockOTP)).Verify(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/verify",
		jsonBody(t, verifyCodeRequest{Email: "a@x.com", Code: "12ab"})))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestVerify_StoreFailure(t *testing.T) {
	svc := new(mockOTP)
	svc.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(domain.VerifyNotFound, errors.New("throttled"))
	rr := httptest.NewRecorder()
	NewOTPHandler(svc).Verify(rr, httptest.NewRequest(http.MethodPost, "/v1/otp/verify",
		jsonBody(t, verifyCodeRequest{Email: "a@x.com", Code: "111111"})))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "throttled")
}

func TestStatus_ReportsRemainingSeconds(t *testing.T) {
	svc := new(mockOTP)
	svc.On("RemainingTime", mock.Anything, "a@x.com").Return(42*time.Second, nil)
	rr := httptest.NewRecorder()
	NewOTPHandler(svc).Status(rr, httptest.NewRequest(http.MethodGet, "/v1/otp/status?email=a@x.com", nil))

	env := decode[ChallengeStatusEnvelope](t, rr)
	assert.True(t, env.Pending)
	assert.Equal(t, 42, env.RemainingSeconds)
}

func TestStatus_NothingPending(t *testing.T) {
	svc := new(mockOTP)
	svc.On("RemainingTime", mock.Anything, "a@x.com").Return(time.Duration(0), nil)
	rr := httptest.NewRecorder()
	NewOTPHandler(svc).Status(rr, httptest.NewRequest(http.MethodGet, "/v1/otp/status?email=a@x.com", nil))

	env := decode[ChallengeStatusEnvelope](t, rr)
	assert.False(t, env.Pending)
	assert.Zero(t, env.RemainingSeconds)
}
