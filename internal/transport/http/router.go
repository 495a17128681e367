package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/voucher-console/internal/config"
	"github.com/voucher-console/internal/domain"
	"github.com/voucher-console/internal/transport/http/handler"
	appmiddleware "github.com/voucher-console/internal/transport/http/middleware"
)

const voucherResource = "/{resource:(cash|cheque)-vouchers}"

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	passthrough := func(next http.Handler) http.Handler { return next }
	authMw, adminMw := passthrough, passthrough
	authEnabled := len(deps.TokenVerifiers) > 0
	if authEnabled {
		authMw = appmiddleware.Auth(deps.TokenVerifiers...)
		adminMw = appmiddleware.RequireRole(domain.RoleAdmin)
	}

	otpRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, cfg.TrustProxyHeaders)

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOTPHandler(deps.Issuer, deps.Deletion, deps.Alerter, cfg.OTPBindTokenEmail && authEnabled)
	voucherH := handler.NewVoucherHandler(deps.Vouchers, deps.Alerter)

	r.Get("/health-check/{action}", healthH.Ping)

	r.Group(func(r chi.Router) {
		r.Use(authMw)

		r.Route("/otp", func(r chi.Router) {
			r.Use(otpRL.Limit)
			r.Post("/issue", otpH.Issue)
			r.With(adminMw).Post("/verify-and-delete", otpH.VerifyAndDelete)
		})

		r.Get("/vouchers/counts", voucherH.Counts)
		r.Get(voucherResource, voucherH.List)
		r.Get(voucherResource+"/{id}", voucherH.Get)
		r.With(adminMw).Put(voucherResource+"/{id}", voucherH.Update)
	})

	return r
}
