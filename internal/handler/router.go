package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/basicauth/basicauth-go/internal/middleware"
)

// RouterOptions tunes the cross-cutting middleware of the API router.
type RouterOptions struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires the four API endpoints plus /health. The rate limiter's
// background cleanup stops when ctx is done.
func NewRouter(ctx context.Context, auth *AuthHandler, tokens middleware.TokenValidator, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", chimw.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	limiter := middleware.NewIPRateLimiter(ctx, opts.RateLimitRPS, opts.RateLimitBurst)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Post("/register", auth.HandleRegister)
		r.Post("/login", auth.HandleLogin)
		r.Post("/forgot-password", auth.HandleForgotPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))
		r.Get("/users", auth.HandleListUsers)
	})

	return r
}
