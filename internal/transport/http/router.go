package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-consult-auth/internal/application/session"
	"github.com/go-consult-auth/internal/config"
	"github.com/go-consult-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-consult-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds background
// work owned by the router.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.DeviceHeader},
		ExposedHeaders:   []string{appmiddleware.DeviceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on credential and code endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	sessions := func(deviceID string) handler.SessionScope { return deps.Sessions.Get(deviceID) }
	current := func(deviceID string) session.Snapshot { return deps.Sessions.Get(deviceID).CurrentState() }

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(sessions)
	signupH := handler.NewSignupHandler(deps.SignUp)
	otpH := handler.NewOTPHandler(deps.OTP)
	profileH := handler.NewProfileHandler(deps.Profiles, sessions)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/signup/{kind}", signupH.SignUp)
		r.With(sensitiveRL.Limit).Post("/otp/send", otpH.Send)
		r.With(sensitiveRL.Limit).Post("/otp/resend", otpH.Resend)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)
		r.Get("/otp/status", otpH.Status)

		// Device-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Device)

			r.Post("/auth/bootstrap", authH.Bootstrap)
			r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
			r.Post("/auth/logout", authH.Logout)
			r.Post("/auth/refresh-profile", authH.RefreshProfile)
			r.Get("/auth/state", authH.State)

			r.With(appmiddleware.RequireSession(current)).Put("/profile", profileH.Update)
		})
	})

	return r
}
