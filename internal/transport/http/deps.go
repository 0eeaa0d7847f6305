package http

import (
	"github.com/go-consult-auth/internal/application/otp"
	"github.com/go-consult-auth/internal/application/profile"
	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/application/signup"
)

// Deps holds the application services the router exposes.
type Deps struct {
	Sessions *session.Registry
	SignUp   signup.Service
	OTP      otp.Service
	Profiles profile.Service
}
